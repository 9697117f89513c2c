package export

import (
	"net/http"

	"golang.org/x/text/language"
)

var supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(supported)

// labels maps a column key to its header text per base language.
var labels = map[string]map[string]string{
	"en": {
		"id": "ID", "name": "Name", "description": "Description", "stock": "Stock", "min_stock": "Min stock",
		"purchase_price": "Purchase price", "sale_price": "Sale price", "status": "Status",
		"active": "Active", "inactive": "Inactive",
		"product": "Product", "quantity": "Quantity", "unit_price": "Unit price", "total": "Total",
		"supplier": "Supplier", "note": "Note", "date": "Date", "amount": "Amount", "category": "Category",
		"concept": "Concept", "value": "Value", "period": "Period",
		"total_sales": "Total sales", "total_purchases": "Total purchases", "total_investments": "Total investments",
		"net_profit": "Net profit", "action": "Action", "entity": "Entity", "entity_id": "Entity ID", "origin": "Origin",
		"sheet_products": "Products", "sheet_purchases": "Purchases", "sheet_sales": "Sales",
		"sheet_investments": "Investments", "sheet_monthly": "Monthly report", "sheet_audit": "Audit",
	},
	"es": {
		"id": "ID", "name": "Nombre", "description": "Descripción", "stock": "Stock", "min_stock": "Stock mínimo",
		"purchase_price": "Precio compra", "sale_price": "Precio venta", "status": "Estado",
		"active": "Activo", "inactive": "Inactivo",
		"product": "Producto", "quantity": "Cantidad", "unit_price": "Precio unitario", "total": "Total",
		"supplier": "Proveedor", "note": "Nota", "date": "Fecha", "amount": "Monto", "category": "Categoría",
		"concept": "Concepto", "value": "Valor", "period": "Periodo",
		"total_sales": "Total ventas", "total_purchases": "Total compras", "total_investments": "Total inversiones",
		"net_profit": "Ganancia neta", "action": "Acción", "entity": "Entidad", "entity_id": "ID entidad", "origin": "Origen",
		"sheet_products": "Productos", "sheet_purchases": "Compras", "sheet_sales": "Ventas",
		"sheet_investments": "Inversiones", "sheet_monthly": "Reporte mensual", "sheet_audit": "Auditoría",
	},
}

// Locale picks header labels for one language.
type Locale struct {
	base string
}

// Negotiate matches an Accept-Language header against the supported
// languages. Unknown or empty headers fall back to English.
func Negotiate(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Locale{base: "en"}
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Locale{base: "en"}
	}
	base, _ := supported[idx].Base()
	return Locale{base: base.String()}
}

// FromRequest negotiates the locale of r.
func FromRequest(r *http.Request) Locale {
	return Negotiate(r.Header.Get("Accept-Language"))
}

// Language is the base language code of l.
func (l Locale) Language() string {
	if l.base == "" {
		return "en"
	}
	return l.base
}

// T returns the label for key, or key itself when none exists.
func (l Locale) T(key string) string {
	if v, ok := labels[l.Language()][key]; ok {
		return v
	}
	return key
}

func (l Locale) all(keys ...string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = l.T(k)
	}
	return out
}
