package seeds

import (
	finance "sekolahku_backend/internals/seeds/finance"

	"gorm.io/gorm"
)

func RunAllSeeds(db *gorm.DB) {
	//* Master data keuangan (cabang, kelas, siswa, enrollment)
	finance.SeedMasterDataFromJSON(db, "internals/seeds/finance/data_master.json")
}
