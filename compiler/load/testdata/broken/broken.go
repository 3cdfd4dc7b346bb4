package broken

type Product struct {
	Id int64 `db:",key"`
	Name undefined
}
