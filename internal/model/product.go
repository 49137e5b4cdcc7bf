package model

// JSON field names of a product, shared by request bodies, partial updates and validation errors.
const (
	FieldID            = "id"
	FieldName          = "nome"
	FieldDescription   = "descricao"
	FieldPrice         = "preco"
	FieldStockQuantity = "qntEstoque"
)

// Product represents an inventory item as it is persisted.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"nome"`
	Description   string  `json:"descricao"`
	Price         float64 `json:"preco"`
	StockQuantity int     `json:"qntEstoque"`
}

// ProductInput is a product as supplied by a client. Pointer fields keep an
// absent or null value apart from a zero value. Upper bounds follow the
// produto columns (nome VARCHAR(255), quantidadeestoque INTEGER).
type ProductInput struct {
	Name          *string  `json:"nome" validate:"required,min=2,max=255"`
	Description   *string  `json:"descricao"`
	Price         *float64 `json:"preco" validate:"required,gte=0"`
	StockQuantity *int     `json:"qntEstoque" validate:"required,gte=0,lte=2147483647"`
}

// Input returns the product as a candidate, so it can be merged and validated again.
func (p *Product) Input() ProductInput {
	name, description, price, stock := p.Name, p.Description, p.Price, p.StockQuantity
	return ProductInput{
		Name:          &name,
		Description:   &description,
		Price:         &price,
		StockQuantity: &stock,
	}
}

// Apply overwrites every mutable field with the values of in. The ID is left untouched.
func (p *Product) Apply(in ProductInput) {
	p.Name = deref(in.Name)
	p.Description = deref(in.Description)
	p.Price = deref(in.Price)
	p.StockQuantity = deref(in.StockQuantity)
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
