package models

const (
	MinStars = 1
	MaxStars = 5
)

type Review struct {
	ID         int64  `db:"review_id" json:"review_id"`
	RecipeName string `db:"recipe_name" json:"recipe_name"`
	Username   string `db:"username" json:"username"`
	Stars      int    `db:"stars" json:"stars"`
	Text       string `db:"review_text" json:"review_text"`
}

func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}
