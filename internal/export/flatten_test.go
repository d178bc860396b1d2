package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoreScraper/internal/domain"
)

func TestFlattenImageColumnsUniformWidth(t *testing.T) {
	records := []domain.ProductRecord{
		{Folder: "1_Hoodie_500", Name: "Hoodie", Price: 500, Images: []string{"img_1.jpg"}},
		{Folder: "2_Jacket_900", Name: "Jacket", Price: 900, Images: []string{"img_1.jpg", "img_2.jpg", "img_3.jpg"}},
	}

	table := Flatten(records, 50, "")

	require.Len(t, table.Rows, 2)
	assert.Contains(t, table.Columns, "Product Image File – 1")
	assert.Contains(t, table.Columns, "Product Image File – 3")
	assert.NotContains(t, table.Columns, "Product Image File – 4")

	// The 1-image record still carries all three columns, padded empty.
	row := table.Rows[0]
	assert.Equal(t, "1_Hoodie_500__img_1.jpg", row["Product Image File – 1"])
	assert.Equal(t, "", row["Product Image File – 2"])
	assert.Equal(t, "", row["Product Image File – 3"])

	for _, r := range table.Rows {
		for _, column := range table.Columns {
			_, ok := r[column]
			assert.True(t, ok, "missing cell %s", column)
		}
	}
}

func TestFlattenFixedFields(t *testing.T) {
	records := []domain.ProductRecord{
		{Folder: "1_Hoodie_500", Name: "Hoodie", Price: 500, Description: "тепле худі", Images: []string{"img_1.jpg"}},
	}

	table := Flatten(records, 50, "")
	row := table.Rows[0]

	assert.Equal(t, "Product", row["Item Type"])
	assert.Equal(t, "Hoodie", row["Product Name"])
	assert.Equal(t, "Clothing", row["Category"])
	assert.Equal(t, "10", row["Price"])
	assert.Equal(t, "тепле худі", row["Product Description"])
	assert.Equal(t, "", row["Brand Name"])
	assert.Equal(t, "0.5", row["Product Weight"])
	assert.Equal(t, "P", row["Product Type"])
	assert.Equal(t, "Y", row["Product Visible?"])
}

func TestFlattenImageURLPrefix(t *testing.T) {
	records := []domain.ProductRecord{
		{Folder: "1_Hoodie_500", Name: "Hoodie", Price: 500, Images: []string{"img_1.jpg"}},
	}

	table := Flatten(records, 50, "https://cdn.example.com/products/")

	assert.Equal(t,
		"https://cdn.example.com/products/1_Hoodie_500__img_1.jpg",
		table.Rows[0]["Product Image File – 1"])
}

func TestFlattenStripsBracketsFromFolderPrefix(t *testing.T) {
	records := []domain.ProductRecord{
		{Folder: "1_[SALE]_Hoodie_500", Name: "Hoodie", Price: 500, Images: []string{"img_1.jpg"}},
	}

	table := Flatten(records, 50, "")

	assert.Equal(t, "1_SALE_Hoodie_500__img_1.jpg", table.Rows[0]["Product Image File – 1"])
}

func TestFlattenIdempotent(t *testing.T) {
	records := []domain.ProductRecord{
		{Folder: "1_Hoodie_500", Name: "Hoodie", Price: 500, Images: []string{"img_1.jpg", "img_2.jpg"}},
		{Folder: "2_Jacket_900", Name: "Jacket", Price: 900, Images: []string{"img_1.jpg"}},
	}

	first := Flatten(records, 50, "")
	second := Flatten(records, 50, "")
	require.Equal(t, first, second)
}

func TestConvertPrice(t *testing.T) {
	assert.Equal(t, 10, ConvertPrice(500, 50))
	assert.Equal(t, 0, ConvertPrice(20, 50))
	assert.Equal(t, 1, ConvertPrice(30, 50))
}

// Ties round half away from zero: 75/50 = 1.5 becomes 2, not 1.
func TestConvertPriceHalfBoundary(t *testing.T) {
	assert.Equal(t, 2, ConvertPrice(75, 50))
	assert.Equal(t, 1, ConvertPrice(25, 50))
	assert.Equal(t, 3, ConvertPrice(125, 50))
}

func TestCleanNameDegenerateLabel(t *testing.T) {
	// A bare price keyword falls back to the folder slug; here the slug
	// itself only holds the keyword and the price, so the terminal
	// fallback kicks in. Never empty, never the raw keyword.
	got := CleanName("Ціна_500", "003_Ціна_500_500")
	assert.Equal(t, "Unknown Brand", got)
}

func TestCleanNameDerivedFromFolder(t *testing.T) {
	got := CleanName("Price 500", "012_Nike_Air_Max_1200")
	assert.Equal(t, "Nike Air Max", got)
}

func TestCleanNameKeepsGoodName(t *testing.T) {
	got := CleanName("Nike_Air_Max", "012_Nike_Air_Max_1200")
	assert.Equal(t, "Nike Air Max", got)
}

func TestCleanNameEmptyRaw(t *testing.T) {
	got := CleanName("", "007_Zara_Dress_800")
	assert.Equal(t, "Zara Dress", got)
}

func TestCleanDescriptionStripsNoiseLines(t *testing.T) {
	text := "Тепле зимове худі\n" +
		"Ціна: 500 грн\n" +
		"Розмір: M, L\n" +
		"Для замовлення пишіть в особисті\n" +
		"@store_manager\n" +
		"https://t.me/store\n" +
		"Швидка доставка"

	got := CleanDescription(text)
	assert.Equal(t, "Тепле зимове худі Швидка доставка", got)
}

func TestCleanDescriptionFullLineMatchOnly(t *testing.T) {
	// Partial-line noise stays: the handle is embedded mid-sentence.
	got := CleanDescription("Пишіть @store_manager для деталей")
	assert.Equal(t, "Пишіть @store_manager для деталей", got)
}

func TestCleanDescriptionEmpty(t *testing.T) {
	assert.Equal(t, "", CleanDescription(""))
	assert.Equal(t, "", CleanDescription("Ціна: 100\n@handle"))
}
