package main

import (
	"log/slog"
	"math/rand"
	"time"
)

// newViaroute is an activities provider with a 10% failure rate.
func newViaroute(logger *slog.Logger) *mockProvider {
	return &mockProvider{
		name: "viaroute",
		products: []product{
			{ID: "ACT-201", Name: "Old Town Walking Tour", Description: "Two hour guided walk.", Price: 24.5, Currency: "EUR", Categories: []string{"tour", "culture"}, Rating: 4.6},
			{ID: "ACT-202", Name: "River Kayak Adventure", Description: "Half day kayak trip with gear.", Price: 58.995, Currency: "EUR", Categories: []string{"outdoor"}, Rating: 4.8},
			{ID: "ACT-203", Name: "Cooking Class", Description: "Local cuisine, small groups.", Price: 79, Currency: "eur", Categories: []string{"food"}, Rating: 4.9},
		},
		variants: map[string]map[string][]variant{
			"ACT-201": {
				"morning": {
					{Code: "STD", Name: "Standard", Price: 24.5, Capacity: 15},
					{Code: "PRV", Name: "Private", Price: 120, Capacity: 6},
				},
				"afternoon": {
					// Same STD variant surfaces again in a later bucket.
					{Code: "STD", Name: "Standard", Price: 24.5, Capacity: 15},
				},
			},
			"ACT-202": {
				"morning": {{Code: "SGL", Name: "Single kayak", Price: 58.99, Capacity: 1}},
			},
			"ACT-203": {
				"evening": {{Code: "GRP", Name: "Group table", Price: 79, Capacity: 12}},
			},
		},
		bookAble: true,
		failRate: 0.1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

// newStayhub is a hotels provider with a 5% failure rate.
func newStayhub(logger *slog.Logger) *mockProvider {
	return &mockProvider{
		name: "stayhub",
		products: []product{
			{ID: "HTL-11", Name: "Grand Central Hotel", Description: "Four stars near the station.", Price: 148, Currency: "EUR", Categories: []string{"hotel"}, Rating: 4.2},
			{ID: "HTL-12", Name: "Canal View Rooms", Description: "Boutique stay.", Price: 96.345, Currency: "EUR", Categories: []string{"hotel", "boutique"}, Rating: 4.5},
		},
		variants: map[string]map[string][]variant{
			"HTL-11": {
				"any": {
					{Code: "DBL", Name: "Double room", Price: 148, Capacity: 2},
					{Code: "SUI", Name: "Suite", Price: 260, Capacity: 4},
				},
			},
			"HTL-12": {
				"any": {{Code: "DBL", Name: "Double room", Price: 96.35, Capacity: 2}},
			},
		},
		bookAble: true,
		failRate: 0.05,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

// newForketta is a legacy restaurants provider: it only supports search and
// details, so variants, book and cancel answer 501.
func newForketta(logger *slog.Logger) *mockProvider {
	return &mockProvider{
		name: "forketta",
		products: []product{
			{ID: "RST-7", Name: "Trattoria Vecchia", Description: "Family kitchen since 1962.", Price: 35, Currency: "EUR", Categories: []string{"italian"}, Rating: 4.7},
			{ID: "RST-8", Name: "Harbor Grill", Description: "Fresh fish daily.", Price: 52, Currency: "EUR", Categories: []string{"seafood"}, Rating: 4.3},
		},
		bookAble: false,
		failRate: 0.1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}
