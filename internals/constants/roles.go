package constants

// Role dasar platform
const (
	RoleStudent   = "student"
	RoleParent    = "parent"
	RoleTeacher   = "teacher"
	RoleAdmin     = "admin"
	RoleTreasurer = "treasurer"
	RoleOwner     = "owner"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess = "❌ Hanya admin/bendahara yang boleh mengakses fitur %s."
	ErrOnlyPayersCanAccess = "❌ Hanya siswa atau orang tua yang boleh mengakses fitur %s."
)

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	// FinanceStaff boleh mengelola campaign & konfirmasi kas
	FinanceStaff = []string{
		RoleAdmin,
		RoleTreasurer,
		RoleOwner,
	}

	// Payers boleh melihat tagihan & melakukan pembayaran
	Payers = []string{
		RoleStudent,
		RoleParent,
	}
)
