// file: internals/features/finance/pricing/pricing.go
package pricing

/* =========================================================
   Kalkulator beasiswa — satu-satunya tempat hitung diskon.
   Dipakai saat fan-out campaign; nilai hasil di-snapshot ke
   obligation dan tidak pernah dihitung ulang.
========================================================= */

// ComputeFinal menghitung potongan beasiswa atas harga dasar.
// discount = floor(base * percent / 100); final = max(base - discount, 0).
// percent di-clamp ke 0..100, base negatif dianggap 0.
func ComputeFinal(baseIDR int64, scholarshipPercent int) (discountIDR, finalIDR int64) {
	if baseIDR < 0 {
		baseIDR = 0
	}
	if scholarshipPercent < 0 {
		scholarshipPercent = 0
	}
	if scholarshipPercent > 100 {
		scholarshipPercent = 100
	}

	discountIDR = baseIDR * int64(scholarshipPercent) / 100
	finalIDR = baseIDR - discountIDR
	if finalIDR < 0 {
		finalIDR = 0
	}
	return discountIDR, finalIDR
}
