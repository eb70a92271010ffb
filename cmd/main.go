package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gfs "cloud.google.com/go/firestore"
	"github.com/joho/godotenv"

	"stockcart/config"
	_ "stockcart/docs"
	"stockcart/internal/domain"
	"stockcart/internal/handoff"
	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/database"
	"stockcart/internal/pkg/firestore"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/sessionlock"
	"stockcart/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"stockcart/internal/api/cart"
	"stockcart/internal/api/checkout"
	"stockcart/internal/api/product"
	"stockcart/internal/api/router"
	"stockcart/internal/api/shipping"
	"stockcart/internal/api/stock"
	"stockcart/internal/api/user"
	"stockcart/internal/repository/cartrepo"
	"stockcart/internal/repository/inventoryrepo"
	"stockcart/internal/repository/productrepo"
	"stockcart/internal/repository/salerepo"
	"stockcart/internal/service/cartservice"
	"stockcart/internal/service/checkoutservice"
	"stockcart/internal/service/productservice"
	"stockcart/internal/service/shippingservice"
	"stockcart/internal/service/stockservice"
	"stockcart/internal/service/userservice"
)

// backend agrupa as implementações escolhidas por STORE_BACKEND.
type backend struct {
	inventory inventoryrepo.Store
	products  domain.ProductRepository
	sales     checkoutservice.SaleRecorder
	close     func()
}

// @title stockcart API
// @version 1.0
// @description Carrinho, catálogo e checkout com baixa atômica de estoque.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço stockcart...")
	if err := godotenv.Load(); err != nil {
		// Sem .env seguimos com o ambiente do sistema (ex: Docker)
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", map[string]interface{}{"backend": cfg.StoreBackend, "env": cfg.Environment})

	// 2. Infraestrutura
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao Redis.", err)
	}
	appLog.Info("Conexão Redis estabelecida.", nil)

	be, err := openBackend(cfg, appLog)
	if err != nil {
		appLog.Fatal("Falha ao inicializar o armazenamento.", err)
	}
	defer be.close()

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Estoque: timeout por chamada + circuit breaker
	inventory := inventoryrepo.NewGuarded(be.inventory, inventoryrepo.GuardConfig{
		Timeout:     cfg.StoreTimeout,
		MaxFailures: uint32(cfg.BreakerMaxFailures),
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, appLog)
	stockSvc := stockservice.NewService(inventory, appLog, cfg.LowStockLimit)
	validator := stockservice.NewValidator(inventory, appLog)

	// B. Catálogo
	productSvc := productservice.NewService(be.products, inventory, cacheClient, cfg.CatalogCacheTTL, appLog)
	if cfg.SeedFile != "" {
		seedCatalog(productSvc, cfg.SeedFile, appLog)
	}

	// C. Carrinho da sessão. As travas por sessão são as mesmas do checkout.
	locks := sessionlock.New()
	cartStore := cartrepo.NewStore(cacheClient, cfg.CartTTL, cfg.CacheTimeout, appLog)
	cartSvc := cartservice.NewService(cartStore, validator, productSvc, locks, appLog)

	// D. Checkout
	notifier := handoff.Chain{handoff.NewLinkNotifier(cfg.WhatsAppNumber, appLog)}
	if cfg.EmailEnabled() {
		notifier = append(notifier, handoff.NewSendGridNotifier(cfg.SendGridAPIKey, handoff.EmailConfig{
			From: cfg.SendGridFrom,
			To:   cfg.SendGridTo,
		}, appLog))
		appLog.Info("Notificação por e-mail habilitada.", nil)
	}
	coordinator := checkoutservice.NewCoordinator(checkoutservice.Dependencies{
		Carts:     cartStore,
		Checker:   validator,
		Inventory: inventory,
		Recorder:  be.sales,
		Notifier:  notifier,
		Locks:     locks,
		Logger:    appLog,
	})

	// E. Envio e sessão
	shippingSvc := shippingservice.NewService(nil)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	if cfg.AdminPasswordHash == "" {
		appLog.Warn("ADMIN_PASSWORD_HASH ausente: login administrativo desabilitado.", nil)
	}
	userSvc := userservice.NewService(tokenSvc, cfg.AdminPasswordHash, appLog)

	// F. Handlers
	handlers := router.Handlers{
		User:     user.NewHandler(userSvc, appLog),
		Product:  product.NewHandler(productSvc, appLog),
		Shipping: shipping.NewHandler(shippingSvc, appLog),
		Cart:     cart.NewHandler(cartSvc, appLog),
		Checkout: checkout.NewHandler(coordinator, cfg.WhatsAppNumber, appLog),
		Stock:    stock.NewHandler(stockSvc, productSvc, appLog),
	}
	appLog.Debug("Handlers inicializados.", nil)

	// 4. Roteador e Servidor
	r := router.NewRouter(handlers, router.Options{
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitWindow: cfg.RateLimitPeriod,
	}, tokenSvc, cacheClient, appLog)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor stockcart ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}

// seedCatalog grava o catálogo inicial. Falha na carga não derruba o serviço.
func seedCatalog(productSvc *productservice.Service, path string, appLog logger.Logger) {
	items, err := productservice.ReadSeedFile(path)
	if err != nil {
		appLog.Error("Falha ao ler a carga inicial do catálogo.", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := productSvc.Seed(ctx, items)
	if err != nil {
		appLog.Error("Carga inicial do catálogo interrompida.", err)
	}
	appLog.Info("Carga inicial do catálogo aplicada.", map[string]interface{}{"file": path, "products": n})
}

// openBackend conecta o armazenamento escolhido e monta os repositórios dele.
func openBackend(cfg *config.Config, appLog logger.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(cfg.DatabaseURL, cfg.DBTimeout)
		if err != nil {
			return nil, err
		}
		appLog.Info("Conexão PostgreSQL estabelecida.", nil)
		return &backend{
			inventory: inventoryrepo.NewPostgresStore(db, cfg.DBTimeout, appLog),
			products:  productrepo.NewProductRepository(db, cfg.DBTimeout, appLog),
			sales:     salerepo.NewPostgresRecorder(db, cfg.DBTimeout, appLog),
			close:     closer(db, appLog),
		}, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(context.Background(), cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		appLog.Info("Cliente Firestore inicializado.", map[string]interface{}{"project": cfg.FirestoreProjectID})
		return &backend{
			inventory: inventoryrepo.NewFirestoreStore(client, "", appLog),
			products:  productrepo.NewFirestoreRepository(client, "", appLog),
			sales:     salerepo.NewFirestoreRecorder(client, "", appLog),
			close:     firestoreCloser(client, appLog),
		}, nil

	default:
		appLog.Warn("Usando armazenamento em memória: os dados se perdem ao reiniciar.", nil)
		inventory := inventoryrepo.NewMemoryStore()
		return &backend{
			inventory: inventory,
			products:  productrepo.NewMemoryRepository(inventory),
			sales:     salerepo.NewMemoryRecorder(),
			close:     func() {},
		}, nil
	}
}

func closer(db *sql.DB, appLog logger.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			appLog.Error("Falha ao fechar o banco de dados.", err)
		}
	}
}

func firestoreCloser(client *gfs.Client, appLog logger.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			appLog.Error("Falha ao fechar o cliente Firestore.", err)
		}
	}
}
