package main

import (
	"testing"

	"github.com/learnhub-academy/learnhub/internal/app"
	_ "github.com/learnhub-academy/learnhub/internal/testing/guard"
)

func TestMainReturnsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	main()
}
