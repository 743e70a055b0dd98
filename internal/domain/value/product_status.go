package value

// ProductStatus is the lifecycle state of a published product.
type ProductStatus string

const (
	ProductActive  ProductStatus = "active"
	ProductExpired ProductStatus = "expired"
	ProductDeleted ProductStatus = "deleted"
)

func (s ProductStatus) String() string {
	return string(s)
}
