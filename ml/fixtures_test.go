package ml

import (
	"os"
	"path/filepath"
	"testing"
)

const standardScalerJSON = `{
  "type": "standard_scaler",
  "feature_names": ["age","sex","cp","trestbps","chol","fbs","restecg","thalach","exang","oldpeak","slope","ca","thal"],
  "mean":  [50, 0.5, 1, 130, 240, 0.5, 1, 150, 0.5, 1, 1, 1, 1],
  "scale": [10, 0.5, 1, 20, 50, 0.5, 1, 20, 0.5, 1, 1, 1, 1]
}`

// Only cp and ca carry weight so expected outputs are easy to derive.
const logisticJSON = `{
  "type": "logistic_regression",
  "classes": [0, 1],
  "coef": [0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, -1, 0],
  "intercept": 0
}`

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
