package ml

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Artifacts holds the fitted scaler and classifier. The pair is swapped as a
// unit so a prediction never mixes a new scaler with an old classifier.
type Artifacts struct {
	scalerPath     string
	classifierPath string

	mu         sync.RWMutex
	scaler     Scaler
	classifier Classifier
	loadedAt   time.Time
}

// LoadArtifacts reads both files. Every failure is reported, not only the
// first one.
func LoadArtifacts(scalerPath, classifierPath string) (*Artifacts, error) {
	a := &Artifacts{scalerPath: scalerPath, classifierPath: classifierPath}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewArtifacts wraps already constructed models.
func NewArtifacts(scaler Scaler, classifier Classifier) (*Artifacts, error) {
	if err := checkCompatible(scaler, classifier); err != nil {
		return nil, err
	}
	return &Artifacts{scaler: scaler, classifier: classifier, loadedAt: time.Now()}, nil
}

// Reload re-reads both files and swaps them in. On error the previous pair
// stays active.
func (a *Artifacts) Reload() error {
	scaler, scalerErr := LoadScaler(a.scalerPath)
	if scalerErr != nil {
		scalerErr = fmt.Errorf("load scaler %s: %w", a.scalerPath, scalerErr)
	}
	classifier, classifierErr := LoadClassifier(a.classifierPath)
	if classifierErr != nil {
		classifierErr = fmt.Errorf("load classifier %s: %w", a.classifierPath, classifierErr)
	}
	if err := multierr.Combine(scalerErr, classifierErr); err != nil {
		return err
	}
	if err := checkCompatible(scaler, classifier); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.classifier != nil && !slices.Equal(a.classifier.Classes(), classifier.Classes()) {
		return fmt.Errorf("classifier %s: classes changed from %v to %v",
			a.classifierPath, a.classifier.Classes(), classifier.Classes())
	}
	a.scaler = scaler
	a.classifier = classifier
	a.loadedAt = time.Now()
	return nil
}

func (a *Artifacts) Paths() []string {
	return []string{a.scalerPath, a.classifierPath}
}

// Classes returns the labels of the active classifier. Reloads keep them fixed.
func (a *Artifacts) Classes() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classifier.Classes()
}

func (a *Artifacts) LoadedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loadedAt
}

// Predict scales x and runs both classifier calls against the same snapshot.
func (a *Artifacts) Predict(ctx context.Context, x FeatureVector) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	a.mu.RLock()
	scaler, classifier := a.scaler, a.classifier
	a.mu.RUnlock()

	scaled, err := scaler.Transform(x)
	if err != nil {
		return Prediction{}, fmt.Errorf("scale: %w", err)
	}
	class, err := classifier.Predict(scaled)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := classifier.PredictProba(scaled)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict proba: %w", err)
	}
	return Prediction{Class: class, Classes: classifier.Classes(), Probabilities: proba}, nil
}

func checkCompatible(scaler Scaler, classifier Classifier) error {
	if scaler.NumFeatures() != classifier.NumFeatures() {
		return fmt.Errorf("%w: scaler expects %d features, classifier %d",
			ErrFeatureCount, scaler.NumFeatures(), classifier.NumFeatures())
	}
	return nil
}
