package catalog

// Well-known property ids used by the calculation engine and import path.
// These match the attribute ids of the host admin site.
const (
	PropShape          = 4287 // форма плитки (select)
	PropPiecesPerBox   = 4288 // количество плиток в коробке
	PropM2PerBox       = 4289 // м² в коробке
	PropTileWeight     = 4354 // вес плитки, кг
	PropM2Weight       = 4355 // вес м², кг
	PropM2PerPallet    = 4356 // м² в паллете
	PropBoxWeight      = 4357 // вес коробки, кг
	PropTileArea       = 4362 // площадь плитки, м²
	PropBoxesPerPallet = 4947 // коробок в паллете
	PropPalletWeight   = 5277 // вес паллеты, кг
)

// Option ids of the shape property.
const (
	OptShapeSquare      = "6361"
	OptShapeRectangular = "6360"
)

// CalculableIDs lists every property the calculation engine can derive,
// in the order they are offered to the operator.
var CalculableIDs = []int{
	PropPiecesPerBox, PropM2PerBox, PropBoxWeight, PropTileArea,
	PropTileWeight, PropM2Weight, PropBoxesPerPallet, PropM2PerPallet,
	PropPalletWeight,
}
