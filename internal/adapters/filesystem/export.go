package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"yololabel/internal/domain"
)

// Export writes labeled images and their label files into a train/val
// layout under dir together with data.yaml and classes.txt:
//
//	dir/images/{train,val}/<image>
//	dir/labels/{train,val}/<stem>.txt
//	dir/data.yaml
func (r *Repository) Export(p *domain.Project, dir string, valRatio float64) (*domain.ExportSummary, error) {
	dir = ExpandPath(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	summary := &domain.ExportSummary{Dir: dir}
	for _, img := range p.Images {
		if !img.IsLabeled() {
			summary.Skipped = append(summary.Skipped, img.Filename)
		}
	}

	train, val := domain.SplitDataset(p.Images, valRatio)
	splits := []struct {
		name   string
		images []*domain.ImageRecord
		count  *int
	}{
		{domain.TrainSplit, train, &summary.Train},
		{domain.ValSplit, val, &summary.Val},
	}

	for _, split := range splits {
		imgDir := filepath.Join(dir, domain.ImagesDirName, split.name)
		lblDir := filepath.Join(dir, domain.LabelsDirName, split.name)
		for _, d := range []string{imgDir, lblDir} {
			if err := os.MkdirAll(d, 0755); err != nil {
				return nil, &domain.IOError{Op: "create", Path: d, Err: err}
			}
		}

		for _, img := range split.images {
			if err := copyFile(img.Path, filepath.Join(imgDir, img.Filename)); err != nil {
				summary.Skipped = append(summary.Skipped, img.Filename)
				continue
			}
			if err := writeFileAtomic(filepath.Join(lblDir, img.LabelFilename()), domain.FormatLabelFile(img.Annotations)); err != nil {
				return nil, err
			}
			*split.count++
		}
	}

	desc := domain.NewDatasetDescriptor(dir, p.Classes)
	data, err := yaml.Marshal(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", domain.DatasetFileName, err)
	}
	summary.DescriptorPath = filepath.Join(dir, domain.DatasetFileName)
	if err := writeFileAtomic(summary.DescriptorPath, data); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(filepath.Join(dir, domain.ClassesFileName), []byte(p.Classes.ToText())); err != nil {
		return nil, err
	}

	return summary, nil
}

// ReadDescriptor parses a data.yaml written by Export
func ReadDescriptor(path string) (*domain.DatasetDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Op: "read", Path: path, Err: err}
	}
	var desc domain.DatasetDescriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, path, err)
	}
	return &desc, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
