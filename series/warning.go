package series

import "fmt"

// WarningKind classifies a non-fatal data-quality anomaly.
type WarningKind string

const (
	// WarnIncompleteDecomposition marks a negative network residual: the
	// recorded phases add up to more than the end-to-end latency.
	WarnIncompleteDecomposition WarningKind = "IncompleteDecomposition"

	// WarnServerExceedsEndToEnd marks a server latency above the end-to-end
	// latency of the same point.
	WarnServerExceedsEndToEnd WarningKind = "ServerExceedsEndToEnd"

	// WarnDroppedLoadLevel marks a load level present in only one of two
	// compared series.
	WarnDroppedLoadLevel WarningKind = "DroppedLoadLevel"
)

// Warning is a data-quality anomaly carried alongside a result.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	LoadLevel int         `json:"writers"`
	Detail    string      `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at writers=%d: %s", w.Kind, w.LoadLevel, w.Detail)
}
