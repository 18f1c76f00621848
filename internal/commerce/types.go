package commerce

import "time"

// expirySkew is how long before its expiry a token stops being used.
const expirySkew = 5 * time.Minute

// Token is the OAuth credential used for authenticated calls.
type Token struct {
	AccessToken  string    `dynamodbav:"access_token"`
	RefreshToken string    `dynamodbav:"refresh_token"`
	ExpiresAt    time.Time `dynamodbav:"expires_at"`
}

// Valid reports whether t can be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-expirySkew))
}

// OrderQuery narrows GetUserOrders. Zero values are omitted from the request.
type OrderQuery struct {
	Status string
	Limit  int
	Offset int
}

// Paging is the pagination block of a search response.
type Paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	Item struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"item"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is an order as returned by the API.
type Order struct {
	ID          int64       `json:"id"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	CurrencyID  string      `json:"currency_id"`
	DateCreated string      `json:"date_created"`
	Items       []OrderItem `json:"order_items,omitempty"`
}

// OrdersPage is one page of a buyer's orders.
type OrdersPage struct {
	Results []Order `json:"results"`
	Paging  Paging  `json:"paging"`
}

// Product is a public listing.
type Product struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	CurrencyID        string  `json:"currency_id"`
	AvailableQuantity int     `json:"available_quantity"`
	Condition         string  `json:"condition"`
	Permalink         string  `json:"permalink,omitempty"`
}

// User is the account bound to the access token.
type User struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
