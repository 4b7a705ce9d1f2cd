package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"shopchat/backend/internal/model"
)

// Order summaries appear in the assistant text in five shapes. The shapes are
// mutually exclusive per message: they are tried in priority order and the
// first shape that matches claims the whole text. Each shape is its own type
// with its own captures, so a field parsed for one record can never leak into
// another.

// ExtractOrders recovers order records from assistant text. It returns nil
// when no shape matches.
func ExtractOrders(text string) []model.Order {
	for _, match := range []func(string) []model.Order{
		matchCardRefs,
		matchBulletSummaries,
		matchStructuredLines,
		matchStructuredInline,
		matchBulletCards,
	} {
		if orders := match(text); len(orders) > 0 {
			return orders
		}
	}
	return nil
}

// --- shape 1: heading plus ORDER_CARD JSON ---------------------------------
//
//	**Đơn hàng #20**
//	ORDER_CARD: {"id": 20, "product": "Acer Aspire 5"}

var cardRefRe = regexp.MustCompile(`(?s)\*\*Đơn hàng #(\d+)\*\*.*?ORDER_CARD:\s*(\{[^}]*\})`)

type cardRef struct {
	id      int
	product string
}

func (c cardRef) order() model.Order {
	name, qty := splitQuantity(c.product)
	return model.Order{
		ID:              c.id,
		ProductName:     name,
		OrderItemsCount: qty,
	}
}

func matchCardRefs(text string) []model.Order {
	matches := cardRefRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	orders := make([]model.Order, 0, len(matches))
	for _, m := range matches {
		ref := cardRef{}
		ref.id, _ = strconv.Atoi(m[1])
		var payload struct {
			ID      int    `json:"id"`
			Product string `json:"product"`
		}
		if err := json.Unmarshal([]byte(m[2]), &payload); err == nil {
			// The JSON id is authoritative over the heading.
			if payload.ID > 0 {
				ref.id = payload.ID
			}
			ref.product = payload.Product
		}
		orders = append(orders, ref.order())
	}
	return orders
}

// --- shape 2: heading plus labeled bullets ---------------------------------
//
//	**Đơn hàng #15**
//	- Trạng thái: đang giao
//	- Tổng tiền: 27.990.000 VND
//	- Ngày đặt: 2025-01-12
//	- Sản phẩm: Laptop Dell XPS 13 x2

var orderHeadingRe = regexp.MustCompile(`\*\*Đơn hàng #(\d+)\*\*`)

var (
	statusLineRe   = regexp.MustCompile(`(?im)^\s*[-*]\s*Trạng thái:\s*(.+?)\s*$`)
	totalLineRe    = regexp.MustCompile(`(?im)^\s*[-*]\s*Tổng (?:tiền|cộng):\s*(.+?)\s*$`)
	dateLineRe     = regexp.MustCompile(`(?im)^\s*[-*]\s*Ngày(?: đặt| tạo)?:\s*(.+?)\s*$`)
	productLineRe  = regexp.MustCompile(`(?im)^\s*[-*]\s*Sản phẩm:\s*(.+?)\s*$`)
	customerLineRe = regexp.MustCompile(`(?im)^\s*[-*]\s*Khách hàng:\s*(.+?)\s*$`)
)

type bulletSummary struct {
	id       int
	customer string
	status   string
	totalRaw string
	date     string
	product  string
}

func (b bulletSummary) order() model.Order {
	name, qty := splitQuantity(b.product)
	return model.Order{
		ID:              b.id,
		CustomerName:    b.customer,
		TotalAmount:     parseAmount(b.totalRaw),
		Status:          normalizeStatus(b.status),
		CreatedAt:       b.date,
		OrderItemsCount: qty,
		ProductName:     name,
	}
}

func matchBulletSummaries(text string) []model.Order {
	headings := orderHeadingRe.FindAllStringSubmatchIndex(text, -1)
	if len(headings) == 0 {
		return nil
	}
	orders := make([]model.Order, 0, len(headings))
	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		section := text[h[1]:end]

		s := bulletSummary{
			customer: firstSubmatch(customerLineRe, section),
			status:   firstSubmatch(statusLineRe, section),
			totalRaw: firstSubmatch(totalLineRe, section),
			date:     firstSubmatch(dateLineRe, section),
			product:  firstSubmatch(productLineRe, section),
		}
		if s.customer == "" && s.status == "" && s.totalRaw == "" && s.date == "" && s.product == "" {
			// A bare heading in running prose is not an order summary.
			continue
		}
		s.id, _ = strconv.Atoi(text[h[2]:h[3]])
		orders = append(orders, s.order())
	}
	return orders
}

// --- shape 3: structured labels, one per line ------------------------------
//
//	- ORDER_ID: 15
//	- CUSTOMER: Trần Văn B
//	- TOTAL: 27990K VND
//	- STATUS: delivered
//	- DATE: 2025-01-12
//	- ITEMS: 2

// The $ anchor makes the id line exclusive: a record squeezed onto a single
// line is shape 4's business, not this one's.
var (
	structIDLineRe       = regexp.MustCompile(`(?im)^\s*[-*]?\s*ORDER_ID:\s*(\d+)\s*$`)
	structCustomerLineRe = regexp.MustCompile(`(?im)^\s*[-*]?\s*CUSTOMER:\s*(.+?)\s*$`)
	structTotalLineRe    = regexp.MustCompile(`(?im)^\s*[-*]?\s*TOTAL:\s*(.+?)\s*$`)
	structStatusLineRe   = regexp.MustCompile(`(?im)^\s*[-*]?\s*STATUS:\s*(.+?)\s*$`)
	structDateLineRe     = regexp.MustCompile(`(?im)^\s*[-*]?\s*DATE:\s*(.+?)\s*$`)
	structItemsLineRe    = regexp.MustCompile(`(?im)^\s*[-*]?\s*ITEMS:\s*(\d+)\s*$`)
)

type structuredLines struct {
	id       int
	customer string
	totalRaw string
	status   string
	date     string
	itemsRaw string
}

func (s structuredLines) order() model.Order {
	count, _ := strconv.Atoi(s.itemsRaw)
	return model.Order{
		ID:              s.id,
		CustomerName:    s.customer,
		TotalAmount:     parseAmount(s.totalRaw),
		Status:          normalizeStatus(s.status),
		CreatedAt:       s.date,
		OrderItemsCount: count,
	}
}

func matchStructuredLines(text string) []model.Order {
	ids := structIDLineRe.FindAllStringSubmatchIndex(text, -1)
	if len(ids) == 0 {
		return nil
	}
	orders := make([]model.Order, 0, len(ids))
	for i, loc := range ids {
		end := len(text)
		if i+1 < len(ids) {
			end = ids[i+1][0]
		}
		section := text[loc[1]:end]

		s := structuredLines{
			customer: firstSubmatch(structCustomerLineRe, section),
			totalRaw: firstSubmatch(structTotalLineRe, section),
			status:   firstSubmatch(structStatusLineRe, section),
			date:     firstSubmatch(structDateLineRe, section),
			itemsRaw: firstSubmatch(structItemsLineRe, section),
		}
		s.id, _ = strconv.Atoi(text[loc[2]:loc[3]])
		orders = append(orders, s.order())
	}
	return orders
}

// --- shape 4: structured labels on a single line ---------------------------
//
//	ORDER_ID: 15 | CUSTOMER: Trần Văn B | TOTAL: 27990000 | STATUS: delivered | DATE: 2025-01-12 | ITEMS: 2

var structInlineRe = regexp.MustCompile(`(?i)ORDER_ID:\s*(\d+)[^\n]*?CUSTOMER:\s*([^|\n]+?)\s*[|,]?\s*TOTAL:\s*([^|\n]+?)\s*[|,]?\s*STATUS:\s*([^|\n]+?)\s*[|,]?\s*DATE:\s*([^|\n]+?)\s*[|,]?\s*ITEMS:\s*(\d+)`)

type structuredInline struct {
	id       int
	customer string
	totalRaw string
	status   string
	date     string
	itemsRaw string
}

func (s structuredInline) order() model.Order {
	count, _ := strconv.Atoi(s.itemsRaw)
	return model.Order{
		ID:              s.id,
		CustomerName:    s.customer,
		TotalAmount:     parseAmount(s.totalRaw),
		Status:          normalizeStatus(s.status),
		CreatedAt:       s.date,
		OrderItemsCount: count,
	}
}

func matchStructuredInline(text string) []model.Order {
	matches := structInlineRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	orders := make([]model.Order, 0, len(matches))
	for _, m := range matches {
		s := structuredInline{
			customer: strings.TrimSpace(m[2]),
			totalRaw: strings.TrimSpace(m[3]),
			status:   strings.TrimSpace(m[4]),
			date:     strings.TrimSpace(m[5]),
			itemsRaw: m[6],
		}
		s.id, _ = strconv.Atoi(m[1])
		orders = append(orders, s.order())
	}
	return orders
}

// --- shape 5: labeled bullets without a heading ----------------------------
//
//	- Mã đơn hàng: #15
//	- Trạng thái: đang giao
//	- Tổng tiền: 27.990.000 VND
//	- Sản phẩm: Laptop Dell XPS 13

var orderCodeLineRe = regexp.MustCompile(`(?im)^\s*[-*]\s*Mã đơn hàng:\s*#?(\d+)`)

type bulletCard struct {
	id       int
	customer string
	status   string
	totalRaw string
	date     string
	product  string
}

func (b bulletCard) order() model.Order {
	name, qty := splitQuantity(b.product)
	return model.Order{
		ID:              b.id,
		CustomerName:    b.customer,
		TotalAmount:     parseAmount(b.totalRaw),
		Status:          normalizeStatus(b.status),
		CreatedAt:       b.date,
		OrderItemsCount: qty,
		ProductName:     name,
	}
}

func matchBulletCards(text string) []model.Order {
	codes := orderCodeLineRe.FindAllStringSubmatchIndex(text, -1)
	if len(codes) == 0 {
		return nil
	}
	orders := make([]model.Order, 0, len(codes))
	for i, loc := range codes {
		end := len(text)
		if i+1 < len(codes) {
			end = codes[i+1][0]
		}
		section := text[loc[1]:end]

		c := bulletCard{
			customer: firstSubmatch(customerLineRe, section),
			status:   firstSubmatch(statusLineRe, section),
			totalRaw: firstSubmatch(totalLineRe, section),
			date:     firstSubmatch(dateLineRe, section),
			product:  firstSubmatch(productLineRe, section),
		}
		c.id, _ = strconv.Atoi(text[loc[2]:loc[3]])
		orders = append(orders, c.order())
	}
	return orders
}

// --- shared helpers --------------------------------------------------------

var amountStripRe = regexp.MustCompile(`(?i)\s*(?:VNĐ|VND|₫|đ)\s*`)

// parseAmount turns a human amount string into an integer number of đồng.
// Currency markers and digit separators are stripped; a trailing K multiplies
// by a thousand. Already-numeric inputs pass through unchanged, so the parse
// is idempotent. Unparseable input yields zero.
func parseAmount(raw string) int64 {
	s := amountStripRe.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	kilo := false
	if n := len(s); n > 0 && (s[n-1] == 'K' || s[n-1] == 'k') {
		kilo = true
		s = s[:n-1]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', ' ':
			return -1
		}
		return r
	}, s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	if kilo {
		v *= 1000
	}
	return v
}

var quantityRe = regexp.MustCompile(`(?i)\s+x\s*(\d+)\s*$`)

// splitQuantity peels a trailing "xN" token off a product phrase. Absent or
// malformed, the quantity defaults to one.
func splitQuantity(s string) (string, int) {
	s = strings.TrimSpace(s)
	if m := quantityRe.FindStringSubmatchIndex(s); m != nil {
		qty, _ := strconv.Atoi(s[m[2]:m[3]])
		if qty >= 1 {
			return strings.TrimSpace(s[:m[0]]), qty
		}
	}
	return s, 1
}

func normalizeStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
