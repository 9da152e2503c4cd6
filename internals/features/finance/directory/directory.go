// file: internals/features/finance/directory/directory.go
package directory

import (
	"context"

	"github.com/google/uuid"
)

/* =========================================================
   Boundary ke data master (users / classes / branches).
   Modul finance hanya baca lewat interface ini — CRUD-nya
   milik modul lain.
========================================================= */

type StudentInfo struct {
	StudentID          uuid.UUID
	UserID             uuid.UUID
	Name               string
	Code               string
	ScholarshipPercent int
	ScholarshipLabel   *string
	BranchID           *uuid.UUID
	GuardianUserID     *uuid.UUID
}

type ClassInfo struct {
	ClassID  uuid.UUID
	Name     string
	Subject  *string
	FeeIDR   int64
	BranchID *uuid.UUID
}

type StudentDirectory interface {
	FindByID(ctx context.Context, studentID uuid.UUID) (StudentInfo, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (StudentInfo, error)
}

type ClassDirectory interface {
	FindByID(ctx context.Context, classID uuid.UUID) (ClassInfo, error)
	// ListStudents mengembalikan seluruh siswa aktif pada kelas
	// beserta snapshot beasiswa saat ini.
	ListStudents(ctx context.Context, classID uuid.UUID) ([]StudentInfo, error)
}

type BranchDirectory interface {
	BranchName(ctx context.Context, branchID uuid.UUID) (string, error)
}
