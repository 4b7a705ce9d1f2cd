package main

import (
	"os"

	"shopchat/backend/internal/app"
)

// @title           ShopChat Backend API
// @version         1.0
// @description     Chat backend for the e-commerce assistant: streams model replies, extracts product and order entities, and persists per-user conversations.
// @BasePath        /api/v1
func main() {
	os.Exit(app.Run())
}
