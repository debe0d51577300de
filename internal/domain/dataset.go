package domain

import "math"

// Export layout relative to the export directory
const (
	DatasetFileName = "data.yaml"
	TrainSplit      = "train"
	ValSplit        = "val"
)

// DatasetDescriptor is the data.yaml consumed by YOLO trainers
type DatasetDescriptor struct {
	Path  string   `yaml:"path"`
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// NewDatasetDescriptor describes an export rooted at dir using the
// registry's class order
func NewDatasetDescriptor(dir string, classes *ClassRegistry) DatasetDescriptor {
	return DatasetDescriptor{
		Path:  dir,
		Train: ImagesDirName + "/" + TrainSplit,
		Val:   ImagesDirName + "/" + ValSplit,
		NC:    classes.Len(),
		Names: classes.Names(),
	}
}

// SplitDataset partitions labeled images into train and val. Every k-th
// labeled image (k = round(1/valRatio)) goes to val so the split is
// deterministic for a given image order. With fewer than two labeled
// images everything goes to train.
func SplitDataset(images []*ImageRecord, valRatio float64) (train, val []*ImageRecord) {
	var labeled []*ImageRecord
	for _, img := range images {
		if img.IsLabeled() {
			labeled = append(labeled, img)
		}
	}
	if valRatio <= 0 || len(labeled) < 2 {
		return labeled, nil
	}
	if valRatio >= 1 {
		valRatio = 0.5
	}

	stride := int(math.Round(1 / valRatio))
	if stride < 2 {
		stride = 2
	}
	for i, img := range labeled {
		if i%stride == stride-1 {
			val = append(val, img)
		} else {
			train = append(train, img)
		}
	}
	if len(val) == 0 {
		val = append(val, train[len(train)-1])
		train = train[:len(train)-1]
	}
	return train, val
}

// ExportSummary reports what an export wrote
type ExportSummary struct {
	Dir            string
	DescriptorPath string
	Train          int
	Val            int
	Skipped        []string // unlabeled or missing images
}
