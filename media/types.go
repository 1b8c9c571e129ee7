package media

// AssetType identifies which physical storage area a file belongs to.
type AssetType string

const (
	AssetTypeOriginal AssetType = "original"
	AssetTypePreview  AssetType = "preview"
)
