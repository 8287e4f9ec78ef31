package models

// Claims are the validated contents of an operator JWT.
type Claims struct {
	Username string `json:"username"`
	Exp      int64  `json:"exp"`
}
