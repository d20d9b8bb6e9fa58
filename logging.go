package tintgrid

import (
	"strconv"
	"time"

	"go.uber.org/zap"
)

// buildStats holds timing and size metrics of one mapping build.
type buildStats struct {
	buildTime  time.Duration
	resyncTime time.Duration
	uvCount    int
	cellCount  int
	flatCount  int
	tintCount  int
	coverage   Coverage
}

func newBuildStats(m *Mapping, buildTime, resyncTime time.Duration) buildStats {
	return buildStats{
		buildTime:  buildTime,
		resyncTime: resyncTime,
		uvCount:    m.Coverage().Total,
		cellCount:  m.Len(),
		flatCount:  m.FlatColors(),
		tintCount:  m.TexturePatterns(),
		coverage:   m.Coverage(),
	}
}

// coverageWarning is logged when a build leaves valid samples unmapped.
const coverageWarning = "not all UVs are inside the grid definition; " +
	"make sure every flat color and texture pattern has a region on top of it, then rebuild"

// logBuild reports a finished build. Stats go to debug level; partial
// coverage and configuration problems are warnings.
func logBuild(log *zap.Logger, surface string, stats buildStats, err error) {
	if err != nil {
		log.Warn("mapping disabled by configuration error",
			zap.String("surface", surface),
			zap.Int("affected_regions", len(AffectedRegions(err))),
			zap.Error(err))
		return
	}
	log.Debug("mapping built",
		zap.String("surface", surface),
		zap.Duration("build", stats.buildTime),
		zap.Duration("resync", stats.resyncTime),
		zap.Int("uvs", stats.uvCount),
		zap.Int("cells", stats.cellCount),
		zap.Int("flat", stats.flatCount),
		zap.Int("patterns", stats.tintCount))
	if !stats.coverage.Complete() {
		log.Warn(coverageWarning,
			zap.String("surface", surface),
			zap.Int("unmapped", stats.coverage.Unmapped),
			zap.Float64("coverage", stats.coverage.Ratio()))
	}
}

// deletedMessage is the host-facing note about cells hidden from the
// palette lists.
func deletedMessage(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "1 color is deleted."
	default:
		return strconv.Itoa(n) + " colors are deleted."
	}
}
