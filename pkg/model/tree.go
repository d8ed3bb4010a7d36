package model

// Tree is the aggregate root row. Branches is the owning side of the
// trees → branches relationship.
type Tree struct {
	ID          int64    `gorm:"column:id;primaryKey;autoIncrement"`
	Country     string   `gorm:"column:country"`
	AgeYears    int      `gorm:"column:age_years"`
	Description string   `gorm:"column:description"`
	Branches    []Branch `gorm:"foreignKey:TreeID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Tree) TableName() string {
	return "trees"
}
