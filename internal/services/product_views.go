// internal/services/product_views.go
package services

import (
	"github.com/mercadito/backoffice/internal/models"
)

// NamedValue renders an attribute or variant attribute with its vocabulary name.
type NamedValue struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type InventoryView struct {
	UnidadMedida models.UnitOfMeasure `json:"unidad_medida"`
	Cantidad     float64              `json:"cantidad"`
	StockMinimo  float64              `json:"stock_minimo"`
}

type InventoryVariantView struct {
	Cantidad    float64 `json:"cantidad"`
	StockMinimo float64 `json:"stock_minimo"`
}

type CategoryView struct {
	ID     uint   `json:"id"`
	Nombre string `json:"nombre"`
}

type ImageView struct {
	ID     uint   `json:"id"`
	Imagen string `json:"imagen"`
}

type VariantView struct {
	ID                 uint                  `json:"id"`
	VariantAttributes  []NamedValue          `json:"variant_attributes"`
	InventarioVariante *InventoryVariantView `json:"inventario_variante"`
}

// ProductDetail is the read-side rendering of a product aggregate.
type ProductDetail struct {
	ID          uint           `json:"id"`
	BusinessID  uint           `json:"business"`
	Name        string         `json:"name"`
	PriceBase   string         `json:"price_base"`
	Descripcion string         `json:"descripcion"`
	Attributes  []NamedValue   `json:"attributes"`
	Inventario  *InventoryView `json:"inventario"`
	Categories  []CategoryView `json:"categories"`
	Images      []ImageView    `json:"images"`
	Variants    []VariantView  `json:"variants"`
}

type UnitOfMeasureView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func NewProductDetail(p *models.Product) *ProductDetail {
	detail := &ProductDetail{
		ID:          p.ID,
		BusinessID:  p.BusinessID,
		Name:        p.Name,
		PriceBase:   p.PriceBase.StringFixed(2),
		Descripcion: p.Descripcion,
		Attributes:  make([]NamedValue, 0, len(p.Attributes)),
		Categories:  make([]CategoryView, 0, len(p.Categories)),
		Images:      make([]ImageView, 0, len(p.Images)),
		Variants:    make([]VariantView, 0, len(p.Variants)),
	}

	for _, attr := range p.Attributes {
		detail.Attributes = append(detail.Attributes, NamedValue{ID: attr.ID, Name: attr.AttributeName.Name, Value: attr.Value})
	}

	if p.Inventario != nil {
		detail.Inventario = &InventoryView{
			UnidadMedida: p.Inventario.UnidadMedida,
			Cantidad:     p.Inventario.Cantidad,
			StockMinimo:  p.Inventario.StockMinimo,
		}
	}

	for _, category := range p.Categories {
		detail.Categories = append(detail.Categories, CategoryView{ID: category.ID, Nombre: category.Nombre})
	}

	for _, image := range p.Images {
		detail.Images = append(detail.Images, ImageView{ID: image.ID, Imagen: image.URL})
	}

	for _, variant := range p.Variants {
		view := VariantView{
			ID:                variant.ID,
			VariantAttributes: make([]NamedValue, 0, len(variant.VariantAttributes)),
		}
		for _, attr := range variant.VariantAttributes {
			view.VariantAttributes = append(view.VariantAttributes, NamedValue{ID: attr.ID, Name: attr.AttributeName.Name, Value: attr.Value})
		}
		if variant.InventarioVariante != nil {
			view.InventarioVariante = &InventoryVariantView{
				Cantidad:    variant.InventarioVariante.Cantidad,
				StockMinimo: variant.InventarioVariante.StockMinimo,
			}
		}
		detail.Variants = append(detail.Variants, view)
	}

	return detail
}
