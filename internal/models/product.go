package models

import (
	"errors"
	"strings"
)

// ErrInvalidProduct is returned when a product value is missing or not in the catalog
var ErrInvalidProduct = errors.New("invalid product selection")

// Product identifies a product category a brand can research
type Product string

const (
	ProductPickles       Product = "pickles"
	ProductOvernightOats Product = "overnight-oats"
)

// ProductInfo describes a product category shown on the selection page
type ProductInfo struct {
	ID                 Product  `json:"id"`
	DisplayName        string   `json:"display_name"`
	Description        string   `json:"description"`
	SuggestedQuestions []string `json:"suggested_questions"`
}

var catalog = []ProductInfo{
	{
		ID:          ProductPickles,
		DisplayName: "Pickles",
		Description: "Jarred and refrigerated pickles, from classic dill to spicy specialty brines.",
		SuggestedQuestions: []string{
			"What flavor profiles would make a new pickle brand stand out?",
			"How much would consumers pay for a premium craft pickle jar?",
			"When and how do people usually eat pickles?",
			"What would convince someone to switch from their usual pickle brand?",
		},
	},
	{
		ID:          ProductOvernightOats,
		DisplayName: "Overnight Oats",
		Description: "Ready-to-eat overnight oats and breakfast oat cups.",
		SuggestedQuestions: []string{
			"What stops people from buying ready-made overnight oats?",
			"Which toppings and flavors are most appealing for overnight oats?",
			"How important is protein content when choosing a breakfast?",
			"Would consumers subscribe to a weekly overnight oats delivery?",
		},
	},
}

// productAliases maps alternate spellings accepted from clients onto catalog IDs
var productAliases = map[string]Product{
	"oats":           ProductOvernightOats,
	"overnight_oats": ProductOvernightOats,
	"pickle":         ProductPickles,
}

// Products returns the product catalog in display order
func Products() []ProductInfo {
	out := make([]ProductInfo, len(catalog))
	for i, p := range catalog {
		p.SuggestedQuestions = append([]string(nil), p.SuggestedQuestions...)
		out[i] = p
	}
	return out
}

// ParseProduct resolves a raw client value to a catalog product
func ParseProduct(raw string) (Product, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrInvalidProduct
	}
	if alias, ok := productAliases[value]; ok {
		return alias, nil
	}
	for _, p := range catalog {
		if string(p.ID) == value {
			return p.ID, nil
		}
	}
	return "", ErrInvalidProduct
}

// Valid reports whether p is a catalog product
func (p Product) Valid() bool {
	_, ok := p.Info()
	return ok
}

// Info returns the catalog entry for p
func (p Product) Info() (ProductInfo, bool) {
	for _, info := range catalog {
		if info.ID == p {
			return info, true
		}
	}
	return ProductInfo{}, false
}

// DisplayName returns the human-readable product name, falling back to the raw ID
func (p Product) DisplayName() string {
	if info, ok := p.Info(); ok {
		return info.DisplayName
	}
	return string(p)
}

// SuggestedQuestions returns the starter questions for p
func (p Product) SuggestedQuestions() []string {
	info, ok := p.Info()
	if !ok {
		return nil
	}
	return append([]string(nil), info.SuggestedQuestions...)
}
