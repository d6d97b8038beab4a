package annotations

// ToDrawY pasa una Y de la UI (arriba-izquierda) al espacio PDF (abajo-izquierda).
// No se recorta: fuera de página es error de usuario, no del sistema.
func ToDrawY(pageHeight, uiY float64) float64 {
	return pageHeight - uiY
}
