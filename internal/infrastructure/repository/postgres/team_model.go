package postgres

type teamTableModel struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Code  string `db:"code"`
	Crest string `db:"crest"`
}
