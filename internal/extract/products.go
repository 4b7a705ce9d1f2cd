package extract

import (
	"regexp"
	"strconv"
	"strings"

	"shopchat/backend/internal/model"
)

// The assistant lists products as markdown: a bold name, an image reference
// and labeled attribute lines. The image is the anchor; name candidates are
// searched in a bounded window before it and attributes in a bounded window
// after it, so neighbouring products never bleed into each other.

const (
	nameWindow = 300
	attrWindow = 400
)

var imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)

// Name candidates, tried in order; the image alt text is the last resort.
var (
	lastBoldRe     = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	numberedBoldRe = regexp.MustCompile(`(?m)^\s*\d+\.\s*\*\*([^*\n]+)\*\*`)
	bulletBoldRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s*\*\*([^*\n]+)\*\*`)
)

// Attribute patterns: per attribute an ordered list, first match wins,
// evaluated independently per image.
var (
	idPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*-?\s*ID:?\s*(\d+)`),
		regexp.MustCompile(`(?i)Mã sản phẩm:?\s*(\d+)`),
	}
	stockPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Tồn kho:?\s*(\d+)`),
		regexp.MustCompile(`(?i)Còn lại:?\s*(\d+)`),
		regexp.MustCompile(`(?i)Số lượng:?\s*(\d+)`),
	}
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Giá bán:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)Giá:\s*([^\n]+)`),
		regexp.MustCompile(`([\d][\d.,]*\s*(?:VND|VNĐ|₫|đ))`),
	}
	descriptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Mô tả:\s*([^\n]+)`),
	}
	categoryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Danh mục:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)Loại:\s*([^\n]+)`),
	}
)

var newlineRunRe = regexp.MustCompile(`\n{3,}`)

// ExtractProducts recovers product records anchored on markdown images and
// returns them with the cleaned display text. The markup is removed only when
// at least one product was found; otherwise the text comes back unchanged.
func ExtractProducts(text string) ([]model.Product, string) {
	matches := imageRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	products := make([]model.Product, 0, len(matches))
	for i, m := range matches {
		alt := text[m[2]:m[3]]
		url := text[m[4]:m[5]]

		before := text[maxInt(0, m[0]-nameWindow):m[0]]
		afterEnd := minInt(len(text), m[1]+attrWindow)
		if i+1 < len(matches) && matches[i+1][0] < afterEnd {
			// Stop the attribute window at the next image so this
			// product never claims its neighbour's labels.
			afterEnd = matches[i+1][0]
		}
		after := text[m[1]:afterEnd]

		p := model.Product{
			Name:         productName(before, alt),
			ImageURL:     url,
			Price:        model.Price(firstMatch(pricePatterns, after)),
			Description:  firstMatch(descriptionPatterns, after),
			CategoryName: firstMatch(categoryPatterns, after),
		}
		if v := firstMatch(idPatterns, after); v != "" {
			p.ID, _ = strconv.Atoi(v)
		}
		if v := firstMatch(stockPatterns, after); v != "" {
			p.Stock, _ = strconv.Atoi(v)
		}
		products = append(products, p)
	}

	products = dedupeProducts(products)
	if len(products) == 0 {
		return nil, text
	}
	return products, cleanImageMarkup(text)
}

// productName tries the bold-span heuristics against the window before the
// image, falling back to the alt text.
func productName(before, alt string) string {
	for _, re := range []*regexp.Regexp{lastBoldRe, numberedBoldRe, bulletBoldRe} {
		if all := re.FindAllStringSubmatch(before, -1); len(all) > 0 {
			return strings.TrimSpace(all[len(all)-1][1])
		}
	}
	return strings.TrimSpace(alt)
}

func firstMatch(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// dedupeProducts keeps the first occurrence per identity: equal non-zero IDs
// or equal image URLs name the same entity. Every identity a product carries
// is both checked and claimed, so a record matching an earlier one on either
// axis is dropped regardless of which identities each side has.
func dedupeProducts(in []model.Product) []model.Product {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		keys := identityKeys(p)
		if anySeen(seen, keys) {
			continue
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

// identityKeys lists every identity a product carries. A product with
// neither an ID nor an image URL falls back to its plain Key.
func identityKeys(p model.Product) []string {
	var keys []string
	if p.ID > 0 {
		keys = append(keys, "id:"+strconv.Itoa(p.ID))
	}
	if p.ImageURL != "" {
		keys = append(keys, "url:"+p.ImageURL)
	}
	if len(keys) == 0 {
		keys = append(keys, p.Key())
	}
	return keys
}

func anySeen(seen map[string]struct{}, keys []string) bool {
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return true
		}
	}
	return false
}

func cleanImageMarkup(text string) string {
	clean := imageRe.ReplaceAllString(text, "")
	clean = newlineRunRe.ReplaceAllString(clean, "\n\n")
	return strings.TrimSpace(clean)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
