// Package catalog adapts the two external plant-data providers behind
// normalized record types: Perenual for name search and species detail,
// PlantNet for image identification and species prefix search.
package catalog

// Summary is a normalized search result row.
type Summary struct {
	ID              int      `json:"id"`
	CommonName      string   `json:"commonName"`
	ScientificNames []string `json:"scientificNames"`
	OtherNames      []string `json:"otherNames"`
	Thumbnail       string   `json:"thumbnail"`
}

// Watering describes how often a species wants water.
type Watering struct {
	Frequency string  `json:"frequency"`
	Benchmark *string `json:"benchmark"`
}

// Care summarizes effort required.
type Care struct {
	Level       string `json:"level"`
	Maintenance string `json:"maintenance"`
}

// Dimensions is the expected height range.
type Dimensions struct {
	MinHeight float64 `json:"minHeight"`
	MaxHeight float64 `json:"maxHeight"`
	Unit      string  `json:"unit"`
}

// Flowering describes bloom behavior.
type Flowering struct {
	HasFlowers bool    `json:"hasFlowers"`
	Season     *string `json:"season"`
}

// Hardiness is the USDA hardiness zone range.
type Hardiness struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Detail is the normalized full species record, captured as a plant's info
// snapshot at add-time.
type Detail struct {
	ID              int        `json:"id"`
	CommonName      string     `json:"commonName"`
	ScientificNames []string   `json:"scientificNames"`
	OtherNames      []string   `json:"otherNames"`
	Type            string     `json:"type"`
	Cycle           string     `json:"cycle"`
	Watering        Watering   `json:"watering"`
	Sunlight        []string   `json:"sunlight"`
	Care            Care       `json:"care"`
	Dimensions      Dimensions `json:"dimensions"`
	Indoor          bool       `json:"indoor"`
	Flowering       Flowering  `json:"flowering"`
	Hardiness       Hardiness  `json:"hardiness"`
	Propagation     []string   `json:"propagation"`
	Description     string     `json:"description"`
	Thumbnail       string     `json:"thumbnail"`
	Image           string     `json:"image"`
}

// SpeciesResult is one row from the PlantNet species prefix search.
type SpeciesResult struct {
	ID             string   `json:"id"`
	ScientificName string   `json:"scientificName"`
	Authorship     string   `json:"authorship"`
	CommonNames    []string `json:"commonNames"`
	GBIFID         string   `json:"gbifId"`
	POWOID         string   `json:"powoId"`
	IUCNCategory   *string  `json:"iucnCategory"`
}

// Match is one species candidate from image identification, best score
// first.
type Match struct {
	Score          float64  `json:"score"`
	ScientificName string   `json:"scientificName"`
	CommonNames    []string `json:"commonNames"`
	Family         string   `json:"family"`
	GBIFID         string   `json:"gbifId"`
}
