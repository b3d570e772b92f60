package featureflag

type Flag string

const (
	// Checks every covered cell in addition to the diagonal scan when testing
	// whether a footprint fits.
	FlagFullVolumeFitCheck Flag = "FULL_VOLUME_FIT_CHECK"

	FlagDisablePreview       Flag = "DISABLE_PREVIEW"
	FlagDisableMirror        Flag = "DISABLE_MIRROR"
	FlagDisableImmediateDrop Flag = "DISABLE_IMMEDIATE_DROP"
)
