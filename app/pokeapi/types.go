package pokeapi

// Pokemon is the normalized catalog record served to clients and embedded in
// favorite records. Field names mirror the public API payload.
type Pokemon struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	PokedexNumber  int      `json:"pokedex_number"`
	ImageURL       string   `json:"image_url"`
	Types          []string `json:"types"`
	Abilities      []string `json:"abilities"`
	Height         int      `json:"height"`
	Weight         int      `json:"weight"`
	BaseExperience int      `json:"base_experience"`
	HP             int      `json:"hp"`
	Attack         int      `json:"attack"`
	Defense        int      `json:"defense"`
	SpecialAttack  int      `json:"special_attack"`
	SpecialDefense int      `json:"special_defense"`
	Speed          int      `json:"speed"`
}

func (p *Pokemon) HasType(typeName string) bool {
	for _, t := range p.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

// ListResult is one page of the upstream catalog with full records resolved.
// Count is the upstream-reported total, which may exceed len(Pokemons) when
// individual detail fetches fail.
type ListResult struct {
	Pokemons []*Pokemon `json:"pokemons"`
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
}
