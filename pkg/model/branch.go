package model

// Branch is a child row of exactly one Tree. TreeID is the only link back to
// the owner.
type Branch struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	Length    int   `gorm:"column:length;not null"`
	LeafCount int   `gorm:"column:leaf_count;not null"`
	TreeID    int64 `gorm:"column:tree_id;not null;index"`
}

func (Branch) TableName() string {
	return "branches"
}
