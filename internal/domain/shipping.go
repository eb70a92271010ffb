package domain

import "strings"

const (
	// OtherCantons é a chave de fallback dentro de uma província.
	OtherCantons = "Otros cantones"
	// OtherParishes é o fallback usado em Santa Elena.
	OtherParishes = "Otras parroquias"
	// OtherProvinces é o fallback para províncias fora da tabela.
	OtherProvinces = "Otras provincias"
	// AnyLocality é a única localidade de OtherProvinces.
	AnyLocality = "Cualquier localidad"
)

// ShippingQuote é o custo de envio resolvido para um destino.
type ShippingQuote struct {
	Province string  `json:"province"`
	Canton   string  `json:"canton"`
	Cost     float64 `json:"cost"`
	Fallback bool    `json:"fallback"`
}

// ShippingTable mapeia província -> cantão -> custo.
type ShippingTable map[string]map[string]float64

// DefaultShippingTable é a tabela de custos da loja.
var DefaultShippingTable = ShippingTable{
	"Santa Elena": {
		"Atahualpa": 0.00, "Santa Elena (cabecera)": 1.50, "La Libertad": 1.50,
		"Manglaralto": 2.00, "Colonche": 2.50, OtherParishes: 2.50,
	},
	"Guayas": {
		"Guayaquil": 4.00, "Durán": 4.50, "Samborondón": 4.50, "Playas": 3.50,
		"Milagro": 4.50, "Naranjal": 4.50, OtherCantons: 5.00,
	},
	"Manabí": {
		"Manta": 5.00, "Portoviejo": 5.00, "Jipijapa": 5.50, "Chone": 5.50,
		"Pedernales": 6.00, OtherCantons: 6.00,
	},
	"Los Ríos":                       {"Babahoyo": 5.00, "Quevedo": 5.50, "Ventanas": 5.50, OtherCantons: 6.00},
	"Esmeraldas":                     {"Esmeraldas (cabecera)": 6.50, "Atacames": 6.50, "Quinindé": 6.50, OtherCantons: 7.00},
	"Santo Domingo de los Tsáchilas": {"Santo Domingo": 5.50, OtherCantons: 6.00},
	"Pichincha":                      {"Quito": 6.50, "Cayambe": 6.50, "Sangolquí": 6.50, OtherCantons: 7.00},
	"Cotopaxi":                       {"Latacunga": 6.50, "La Maná": 6.50, OtherCantons: 7.00},
	"Tungurahua":                     {"Ambato": 6.50, "Baños": 6.50, OtherCantons: 7.00},
	"Chimborazo":                     {"Riobamba": 7.00, "Guamote": 7.00, OtherCantons: 7.50},
	"Bolívar":                        {"Guaranda": 7.00, OtherCantons: 7.50},
	"Cañar":                          {"Azogues": 6.50, "La Troncal": 6.50, OtherCantons: 7.00},
	"Azuay":                          {"Cuenca": 6.50, "Gualaceo": 6.50, OtherCantons: 7.00},
	"El Oro":                         {"Machala": 6.00, "Pasaje": 6.00, "Santa Rosa": 6.00, OtherCantons: 6.50},
	"Loja":                           {"Loja (cabecera)": 7.00, "Catamayo": 7.00, OtherCantons: 7.50},
	"Galápagos":                      {"Puerto Ayora": 15.00, "San Cristóbal": 15.00, OtherCantons: 15.00},
	"Sucumbíos":                      {"Nueva Loja (Lago Agrio)": 8.00, OtherCantons: 8.50},
	"Orellana":                       {"Coca": 8.00, OtherCantons: 8.50},
	"Napo":                           {"Tena": 8.00, OtherCantons: 8.50},
	"Pastaza":                        {"Puyo": 8.00, OtherCantons: 8.50},
	"Morona Santiago":                {"Macas": 8.00, OtherCantons: 8.50},
	"Zamora Chinchipe":               {"Zamora": 8.00, "Yantzaza": 8.50, OtherCantons: 8.50},
	OtherProvinces:                   {AnyLocality: 8.50},
}

// Quote resolve o custo. Cantão desconhecido cai em "Otros cantones" (ou
// "Otras parroquias"); província desconhecida cai em "Otras provincias".
func (t ShippingTable) Quote(province, canton string) ShippingQuote {
	prov, cantons, ok := t.lookupProvince(province)
	if !ok {
		return ShippingQuote{Province: OtherProvinces, Canton: AnyLocality, Cost: t[OtherProvinces][AnyLocality], Fallback: true}
	}
	for name, cost := range cantons {
		if strings.EqualFold(name, strings.TrimSpace(canton)) {
			return ShippingQuote{Province: prov, Canton: name, Cost: cost}
		}
	}
	for _, fb := range []string{OtherCantons, OtherParishes} {
		if cost, ok := cantons[fb]; ok {
			return ShippingQuote{Province: prov, Canton: fb, Cost: cost, Fallback: true}
		}
	}
	return ShippingQuote{Province: OtherProvinces, Canton: AnyLocality, Cost: t[OtherProvinces][AnyLocality], Fallback: true}
}

// Cantons devolve a tabela de cantões de uma província (nil se ausente).
func (t ShippingTable) Cantons(province string) map[string]float64 {
	_, cantons, _ := t.lookupProvince(province)
	return cantons
}

func (t ShippingTable) lookupProvince(province string) (string, map[string]float64, bool) {
	p := strings.TrimSpace(province)
	if cantons, ok := t[p]; ok {
		return p, cantons, true
	}
	for name, cantons := range t {
		if strings.EqualFold(name, p) {
			return name, cantons, true
		}
	}
	return "", nil, false
}
