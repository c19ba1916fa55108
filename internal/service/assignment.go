package service

import (
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"

	"gorm.io/gorm"
)

type staffLoad struct {
	ID        string
	OpenCount int64
}

// approvalPerson picks the staff member with the fewest submissions still
// in Uploaded, ties going to the lowest user id. Nobody is picked when even
// the least loaded reviewer has reached ceiling. A ceiling of 0 disables
// the limit.
func approvalPerson(tx *gorm.DB, ceiling int) (*string, error) {
	var loads []staffLoad

	err := tx.
		Table("users").
		Select("users.id AS id, COUNT(submissions.id) AS open_count").
		Joins("LEFT JOIN submissions ON submissions.approval_person_id = users.id AND submissions.status = ?", workflow.SubmissionUploaded).
		Where("users.role = ? AND users.deleted_at IS NULL", model.RoleStaff).
		Group("users.id").
		Order("open_count ASC, users.id ASC").
		Limit(1).
		Scan(&loads).
		Error
	if err != nil {
		return nil, err
	}

	if len(loads) == 0 {
		return nil, nil
	}

	if ceiling > 0 && loads[0].OpenCount >= int64(ceiling) {
		return nil, nil
	}

	return &loads[0].ID, nil
}
