package testdata

type AuditLog struct {
	Action string `db:"action"`
	Actor  string `db:"actor"`
}
