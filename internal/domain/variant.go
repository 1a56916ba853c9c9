package domain

// variantSeparator is never produced by the storefront's size and frame labels.
const variantSeparator = "-"

// VariantKey derives the cart identity of a product configured with a size and a frame.
func VariantKey(productID, size, frame string) string {
	return productID + variantSeparator + size + variantSeparator + frame
}
