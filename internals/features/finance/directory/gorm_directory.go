// file: internals/features/finance/directory/gorm_directory.go
package directory

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   Implementasi GORM — baca tabel platform apa adanya.
========================================================= */

type studentRow struct {
	StudentID          uuid.UUID  `gorm:"column:school_student_id"`
	UserID             uuid.UUID  `gorm:"column:school_student_user_id"`
	Name               string     `gorm:"column:school_student_name"`
	Code               string     `gorm:"column:school_student_code"`
	ScholarshipPercent int        `gorm:"column:school_student_scholarship_percent"`
	ScholarshipLabel   *string    `gorm:"column:school_student_scholarship_label"`
	BranchID           *uuid.UUID `gorm:"column:school_student_branch_id"`
	GuardianUserID     *uuid.UUID `gorm:"column:school_student_guardian_user_id"`
}

func (r studentRow) info() StudentInfo {
	return StudentInfo{
		StudentID:          r.StudentID,
		UserID:             r.UserID,
		Name:               r.Name,
		Code:               r.Code,
		ScholarshipPercent: r.ScholarshipPercent,
		ScholarshipLabel:   r.ScholarshipLabel,
		BranchID:           r.BranchID,
		GuardianUserID:     r.GuardianUserID,
	}
}

const studentSelect = `school_student_id, school_student_user_id, school_student_name,
school_student_code, school_student_scholarship_percent, school_student_scholarship_label,
school_student_branch_id, school_student_guardian_user_id`

/* ================= StudentDirectory ================= */

type GormStudentDirectory struct {
	DB *gorm.DB
}

func NewGormStudentDirectory(db *gorm.DB) *GormStudentDirectory {
	return &GormStudentDirectory{DB: db}
}

func (d *GormStudentDirectory) FindByID(ctx context.Context, studentID uuid.UUID) (StudentInfo, error) {
	var row studentRow
	if err := d.DB.WithContext(ctx).
		Table("school_students").
		Select(studentSelect).
		Where("school_student_id = ? AND school_student_deleted_at IS NULL", studentID).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StudentInfo{}, fiber.NewError(fiber.StatusNotFound, "siswa tidak ditemukan")
		}
		return StudentInfo{}, err
	}
	return row.info(), nil
}

func (d *GormStudentDirectory) FindByUserID(ctx context.Context, userID uuid.UUID) (StudentInfo, error) {
	var row studentRow
	if err := d.DB.WithContext(ctx).
		Table("school_students").
		Select(studentSelect).
		Where("school_student_user_id = ? AND school_student_deleted_at IS NULL", userID).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StudentInfo{}, fiber.NewError(fiber.StatusNotFound, "siswa tidak ditemukan untuk user ini")
		}
		return StudentInfo{}, err
	}
	return row.info(), nil
}

/* ================= ClassDirectory ================= */

type GormClassDirectory struct {
	DB *gorm.DB
}

func NewGormClassDirectory(db *gorm.DB) *GormClassDirectory {
	return &GormClassDirectory{DB: db}
}

type classRow struct {
	ClassID  uuid.UUID  `gorm:"column:class_id"`
	Name     string     `gorm:"column:class_name"`
	Subject  *string    `gorm:"column:class_subject"`
	FeeIDR   int64      `gorm:"column:class_fee_idr"`
	BranchID *uuid.UUID `gorm:"column:class_branch_id"`
}

func (d *GormClassDirectory) FindByID(ctx context.Context, classID uuid.UUID) (ClassInfo, error) {
	var row classRow
	if err := d.DB.WithContext(ctx).
		Table("classes").
		Select("class_id, class_name, class_subject, class_fee_idr, class_branch_id").
		Where("class_id = ? AND class_deleted_at IS NULL", classID).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClassInfo{}, fiber.NewError(fiber.StatusNotFound, "kelas tidak ditemukan")
		}
		return ClassInfo{}, err
	}
	return ClassInfo{
		ClassID:  row.ClassID,
		Name:     row.Name,
		Subject:  row.Subject,
		FeeIDR:   row.FeeIDR,
		BranchID: row.BranchID,
	}, nil
}

func (d *GormClassDirectory) ListStudents(ctx context.Context, classID uuid.UUID) ([]StudentInfo, error) {
	var rows []studentRow
	if err := d.DB.WithContext(ctx).
		Table("school_students").
		Select(studentSelect).
		Joins("JOIN class_enrollments ON class_enrollment_student_id = school_student_id").
		Where("class_enrollment_class_id = ? AND class_enrollment_deleted_at IS NULL AND school_student_deleted_at IS NULL", classID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]StudentInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.info())
	}
	return out, nil
}

/* ================= BranchDirectory ================= */

type GormBranchDirectory struct {
	DB *gorm.DB
}

func NewGormBranchDirectory(db *gorm.DB) *GormBranchDirectory {
	return &GormBranchDirectory{DB: db}
}

func (d *GormBranchDirectory) BranchName(ctx context.Context, branchID uuid.UUID) (string, error) {
	var name string
	if err := d.DB.WithContext(ctx).
		Table("branches").
		Select("branch_name").
		Where("branch_id = ? AND branch_deleted_at IS NULL", branchID).
		Take(&name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fiber.NewError(fiber.StatusNotFound, "branch tidak ditemukan")
		}
		return "", err
	}
	return name, nil
}
