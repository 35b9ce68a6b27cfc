package scoring

import "github.com/riskibarqy/fantasy-scoring/internal/domain/fantasy"

const PointsPerExtraTransfer = 4

// TransferPenalty returns the (non-positive) deduction for transfers beyond the free
// allowance. Wildcard and free hit waive it.
func TransferPenalty(freeTransfers, transfersMade int, chip fantasy.ChipType) int {
	if chip.WaivesTransferPenalty() {
		return 0
	}
	extra := max(0, transfersMade) - max(0, freeTransfers)
	if extra <= 0 {
		return 0
	}
	return -PointsPerExtraTransfer * extra
}
