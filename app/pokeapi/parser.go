package pokeapi

import (
	"encoding/json"
	"fmt"
)

// Upstream payload shapes. PokeAPI nests names one level deep and reports
// base stats as an ordered list: 0=hp, 1=attack, 2=defense, 3=special_attack,
// 4=special_defense, 5=speed.
type detailPayload struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
	BaseExperience int    `json:"base_experience"`
	Types          []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
	} `json:"stats"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

type pagePayload struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

// parseDetail normalizes a raw detail payload into a Pokemon. The image URL
// prefers the official artwork and falls back to the default sprite; missing
// stats default to 0.
func parseDetail(data []byte) (*Pokemon, error) {
	var raw detailPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse detail payload: %w", err)
	}
	if raw.ID <= 0 {
		return nil, fmt.Errorf("detail payload missing id")
	}

	p := &Pokemon{
		ID:             raw.ID,
		Name:           raw.Name,
		PokedexNumber:  raw.ID,
		Height:         raw.Height,
		Weight:         raw.Weight,
		BaseExperience: raw.BaseExperience,
		Types:          make([]string, 0, len(raw.Types)),
		Abilities:      make([]string, 0, len(raw.Abilities)),
	}

	for _, t := range raw.Types {
		p.Types = append(p.Types, t.Type.Name)
	}
	for _, a := range raw.Abilities {
		p.Abilities = append(p.Abilities, a.Ability.Name)
	}

	p.ImageURL = raw.Sprites.Other.OfficialArtwork.FrontDefault
	if p.ImageURL == "" {
		p.ImageURL = raw.Sprites.FrontDefault
	}

	stats := []*int{&p.HP, &p.Attack, &p.Defense, &p.SpecialAttack, &p.SpecialDefense, &p.Speed}
	for i, target := range stats {
		if i < len(raw.Stats) {
			*target = raw.Stats[i].BaseStat
		}
	}

	return p, nil
}
