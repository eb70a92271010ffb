// Package docs registra a especificação Swagger servida em /swagger/.
// Regenerar com: swag init -g cmd/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/session": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Abre uma sessão de carrinho",
                "responses": {
                    "201": {"description": "Sessão criada", "schema": {"$ref": "#/definitions/domain.SessionResponse"}},
                    "500": {"description": "Erro interno do servidor", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Autentica o administrador e retorna um JWT",
                "parameters": [
                    {"description": "Senha administrativa", "name": "login", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AdminLogin"}}
                ],
                "responses": {
                    "200": {"description": "Token JWT emitido", "schema": {"$ref": "#/definitions/domain.TokenResponse"}},
                    "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Lista o catálogo",
                "parameters": [
                    {"type": "string", "description": "Termo de busca", "name": "q", "in": "query"},
                    {"type": "string", "description": "Categoria ou subcategoria", "name": "category", "in": "query"},
                    {"type": "string", "description": "Talla", "name": "size", "in": "query"},
                    {"type": "number", "description": "Preço mínimo", "name": "minPrice", "in": "query"},
                    {"type": "number", "description": "Preço máximo", "name": "maxPrice", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}},
                    "400": {"description": "Filtro inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Busca um produto",
                "parameters": [{"type": "string", "description": "ID do produto", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "404": {"description": "Produto não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/admin/products": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Cadastra um produto com o estoque inicial",
                "parameters": [{"description": "Produto", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ProductUpsert"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "400": {"description": "Dados inválidos", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Apenas administradores", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/admin/products/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Atualiza um produto e repõe o estoque",
                "parameters": [
                    {"type": "string", "description": "ID do produto", "name": "id", "in": "path", "required": true},
                    {"description": "Produto", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ProductUpsert"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "400": {"description": "Dados inválidos", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Apenas administradores", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/shipping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["shipping"],
                "summary": "Cota o envio",
                "parameters": [
                    {"type": "string", "description": "Província", "name": "province", "in": "query", "required": true},
                    {"type": "string", "description": "Cantão", "name": "canton", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ShippingQuote"}}
                }
            }
        },
        "/cart": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Revisa o carrinho contra o estoque",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Estoque indisponível", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["cart"],
                "summary": "Esvazia o carrinho",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/cart/items": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Adiciona um produto ao carrinho",
                "parameters": [
                    {"description": "Produto", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AddItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Produto inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Estoque insuficiente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/checkout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Inicia o checkout do carrinho",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Checkout já em andamento", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/checkout/{id}/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Confirma a compra",
                "parameters": [{"type": "string", "description": "ID da tentativa", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Estoque alterado"},
                    "422": {"description": "Método de pagamento ausente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "503": {"description": "Armazenamento indisponível"}
                }
            }
        },
        "/checkout/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Cancela a tentativa e restaura o estoque baixado",
                "parameters": [{"type": "string", "description": "ID da tentativa", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Tentativa já encerrada"}}
            }
        },
        "/stock/adjust": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stock"],
                "summary": "Ajusta o estoque de um produto",
                "parameters": [
                    {"description": "Ajuste", "name": "adjustment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.StockAdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.StockLevelResponse"}},
                    "409": {"description": "Estoque insuficiente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stock/low": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stock"],
                "summary": "Produtos com pouco estoque",
                "parameters": [{"type": "integer", "description": "Limite (padrão 5)", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "category": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string"}
            }
        },
        "domain.SessionResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "sessionId": {"type": "string"}}
        },
        "domain.AdminLogin": {
            "type": "object",
            "properties": {"password": {"type": "string"}}
        },
        "domain.TokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "brand": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "subcategory": {"type": "string"},
                "price": {"type": "number"},
                "imageRef": {"type": "string"},
                "sizes": {"type": "array", "items": {"type": "string"}},
                "stock": {"type": "integer"},
                "available": {"type": "boolean"}
            }
        },
        "domain.ShippingQuote": {
            "type": "object",
            "properties": {
                "province": {"type": "string"},
                "canton": {"type": "string"},
                "cost": {"type": "number"},
                "fallback": {"type": "boolean"}
            }
        },
        "domain.ProductUpsert": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "brand": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "subcategory": {"type": "string"},
                "price": {"type": "number"},
                "imageRef": {"type": "string"},
                "sizes": {"type": "array", "items": {"type": "string"}},
                "stock": {"type": "integer"},
                "stockByVariant": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "domain.AddItemRequest": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"},
                "displayName": {"type": "string"},
                "unitPrice": {"type": "number"},
                "variant": {"type": "string"},
                "quantity": {"type": "integer"},
                "imageRef": {"type": "string"}
            }
        },
        "domain.StockAdjustmentRequest": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"},
                "variant": {"type": "string"},
                "delta": {"type": "integer"}
            }
        },
        "domain.StockLevelResponse": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"},
                "variant": {"type": "string"},
                "stock": {"type": "integer"},
                "found": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "stockcart API",
	Description:      "Carrinho, catálogo e checkout com baixa atômica de estoque.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
