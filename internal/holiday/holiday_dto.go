package holiday

type CreateHolidayRequest struct {
	Name         string  `json:"name" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	Type         string  `json:"type" binding:"required,oneof=holiday workday"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	DeductLeave  bool    `json:"deduct_leave"`
}

type UpdateHolidayRequest struct {
	Name         string  `json:"name" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	Type         string  `json:"type" binding:"required,oneof=holiday workday"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	DeductLeave  bool    `json:"deduct_leave"`
}

type HolidayResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	DepartmentID *string `json:"department_id,omitempty"`
	DeductLeave  bool    `json:"deduct_leave"`
}
