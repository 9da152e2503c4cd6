package finance

import (
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   Seeder master data untuk development: branches, classes,
   school_students, class_enrollments. Idempotent — baris yang
   sudah ada dilewati.
========================================================= */

type BranchSeed struct {
	BranchName string `json:"branch_name"`
}

type ClassSeed struct {
	ClassName    string  `json:"class_name"`
	ClassSubject *string `json:"class_subject"`
	ClassFeeIDR  int64   `json:"class_fee_idr"`
	BranchName   string  `json:"branch_name"`
}

type StudentSeed struct {
	StudentName        string   `json:"student_name"`
	StudentCode        string   `json:"student_code"`
	ScholarshipPercent int      `json:"scholarship_percent"`
	ScholarshipLabel   *string  `json:"scholarship_label"`
	BranchName         string   `json:"branch_name"`
	ClassNames         []string `json:"class_names"`
}

type MasterDataSeed struct {
	Branches []BranchSeed  `json:"branches"`
	Classes  []ClassSeed   `json:"classes"`
	Students []StudentSeed `json:"students"`
}

func SeedMasterDataFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ Gagal membaca file JSON: %v", err)
	}

	var seed MasterDataSeed
	if err := sonic.Unmarshal(file, &seed); err != nil {
		log.Fatalf("❌ Gagal decode JSON: %v", err)
	}

	now := time.Now()
	branchIDs := map[string]uuid.UUID{}

	for _, b := range seed.Branches {
		var existing uuid.UUID
		err := db.Table("branches").
			Select("branch_id").
			Where("branch_name = ? AND branch_deleted_at IS NULL", b.BranchName).
			Take(&existing).Error
		if err == nil {
			branchIDs[b.BranchName] = existing
			log.Printf("ℹ️ Branch %s sudah ada, lewati...", b.BranchName)
			continue
		}

		id := uuid.New()
		if err := db.Table("branches").Create(map[string]any{
			"branch_id":         id,
			"branch_name":       b.BranchName,
			"branch_created_at": now,
			"branch_updated_at": now,
		}).Error; err != nil {
			log.Printf("❌ Gagal insert branch %s: %v", b.BranchName, err)
			continue
		}
		branchIDs[b.BranchName] = id
		log.Printf("✅ Berhasil insert branch %s", b.BranchName)
	}

	classIDs := map[string]uuid.UUID{}
	for _, c := range seed.Classes {
		var existing uuid.UUID
		err := db.Table("classes").
			Select("class_id").
			Where("class_name = ? AND class_deleted_at IS NULL", c.ClassName).
			Take(&existing).Error
		if err == nil {
			classIDs[c.ClassName] = existing
			log.Printf("ℹ️ Kelas %s sudah ada, lewati...", c.ClassName)
			continue
		}

		id := uuid.New()
		row := map[string]any{
			"class_id":         id,
			"class_name":       c.ClassName,
			"class_subject":    c.ClassSubject,
			"class_fee_idr":    c.ClassFeeIDR,
			"class_created_at": now,
			"class_updated_at": now,
		}
		if bid, ok := branchIDs[c.BranchName]; ok {
			row["class_branch_id"] = bid
		}
		if err := db.Table("classes").Create(row).Error; err != nil {
			log.Printf("❌ Gagal insert kelas %s: %v", c.ClassName, err)
			continue
		}
		classIDs[c.ClassName] = id
		log.Printf("✅ Berhasil insert kelas %s", c.ClassName)
	}

	for _, s := range seed.Students {
		var studentID uuid.UUID
		err := db.Table("school_students").
			Select("school_student_id").
			Where("school_student_code = ? AND school_student_deleted_at IS NULL", s.StudentCode).
			Take(&studentID).Error
		if err != nil {
			studentID = uuid.New()
			row := map[string]any{
				"school_student_id":                  studentID,
				"school_student_user_id":             uuid.New(),
				"school_student_name":                s.StudentName,
				"school_student_code":                s.StudentCode,
				"school_student_scholarship_percent": s.ScholarshipPercent,
				"school_student_scholarship_label":   s.ScholarshipLabel,
				"school_student_created_at":          now,
				"school_student_updated_at":          now,
			}
			if bid, ok := branchIDs[s.BranchName]; ok {
				row["school_student_branch_id"] = bid
			}
			if err := db.Table("school_students").Create(row).Error; err != nil {
				log.Printf("❌ Gagal insert siswa %s: %v", s.StudentCode, err)
				continue
			}
			log.Printf("✅ Berhasil insert siswa %s (%s)", s.StudentName, s.StudentCode)
		} else {
			log.Printf("ℹ️ Siswa %s sudah ada, lewati...", s.StudentCode)
		}

		for _, className := range s.ClassNames {
			classID, ok := classIDs[className]
			if !ok {
				log.Printf("⚠️ Kelas %s tidak dikenal untuk siswa %s", className, s.StudentCode)
				continue
			}

			var n int64
			db.Table("class_enrollments").
				Where("class_enrollment_class_id = ? AND class_enrollment_student_id = ? AND class_enrollment_deleted_at IS NULL",
					classID, studentID).
				Count(&n)
			if n > 0 {
				continue
			}

			if err := db.Table("class_enrollments").Create(map[string]any{
				"class_enrollment_id":         uuid.New(),
				"class_enrollment_class_id":   classID,
				"class_enrollment_student_id": studentID,
				"class_enrollment_created_at": now,
				"class_enrollment_updated_at": now,
			}).Error; err != nil {
				log.Printf("❌ Gagal enroll %s ke %s: %v", s.StudentCode, className, err)
			} else {
				log.Printf("✅ Enroll %s ke %s", s.StudentCode, className)
			}
		}
	}
}
