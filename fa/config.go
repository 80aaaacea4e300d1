package fa

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	YAML configuration for archive creation: the geometry
 *		parameters a new archive is created with, kept out of the
 *		CLI flag surface because they are numerous and archive-
 *		creation-only (spec.md invariant: geometry is immutable
 *		after creation, including the mask, so this is naturally a
 *		file rather than a per-run flag set).
 *
 *------------------------------------------------------------------*/

// ArchiveConfig is the on-disk YAML shape for `fa-archiverd -config`.
type ArchiveConfig struct {
	Path                 string `yaml:"path"`
	FaEntryCount         int    `yaml:"fa_entry_count"`
	InputFrameCount      int    `yaml:"input_frame_count"`
	MajorSampleCount     int    `yaml:"major_sample_count"`
	FirstDecimationLog2  int    `yaml:"first_decimation_log2"`
	SecondDecimationLog2 int    `yaml:"second_decimation_log2"`
	MajorBlockCount      int    `yaml:"major_block_count"`
	Mask                 string `yaml:"mask"`

	WriteBufferDepth int    `yaml:"write_buffer_depth"`
	SnifferDevice    string `yaml:"sniffer_device"`
	BoostPriority    bool   `yaml:"boost_priority"`

	DiscoveryName string `yaml:"discovery_name"`
	DiscoveryPort int    `yaml:"discovery_port"`
}

// LoadArchiveConfig reads and parses an ArchiveConfig from path.
func LoadArchiveConfig(path string) (*ArchiveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg ArchiveConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Geometry converts the config's flat fields into a Geometry, parsing
// the textual mask against fa_entry_count.
func (c *ArchiveConfig) Geometry() (Geometry, error) {
	mask, err := ParseMask(c.Mask, c.FaEntryCount)
	if err != nil {
		return Geometry{}, fmt.Errorf("parsing mask: %w", err)
	}
	return Geometry{
		FaEntryCount:         c.FaEntryCount,
		InputFrameCount:      c.InputFrameCount,
		MajorSampleCount:     c.MajorSampleCount,
		FirstDecimationLog2:  c.FirstDecimationLog2,
		SecondDecimationLog2: c.SecondDecimationLog2,
		MajorBlockCount:      c.MajorBlockCount,
		ArchiveMask:          mask,
	}, nil
}
