package models

// Vacancy представляет вакансию, размещенную работодателем
type Vacancy struct {
	ID           int64  `db:"id"`
	EmployerCode string `db:"employer_code"`
	City         string `db:"city"`
	Description  string `db:"description"`
}
