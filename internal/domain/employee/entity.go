package employee

// Employee is a row of the external userinfo directory.
type Employee struct {
	ID             int64
	Name           string
	Code           string
	DepartmentID   int
	DepartmentName string
}

// Department is a row of the external dept table.
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
