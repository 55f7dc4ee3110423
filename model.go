package main

import (
	"log"
	"os"

	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/monitoring"
)

// buildModel loads or fits the conformational state model.
func buildModel() csmodel.Model {
	if *loadModel != "" {
		if *trainingData != "" {
			monitoring.Logf("warning: --load-model takes precedence, --training-data is ignored")
		}
		f, err := os.Open(*loadModel)
		if err != nil {
			log.Fatalf("failed to open model file: %v", err)
		}
		defer f.Close()
		model, err := csmodel.ReadModel(f)
		if err != nil {
			log.Fatalf("failed to load model: %v", err)
		}
		if model.Kind() != *modelKind {
			monitoring.Infof("loaded %s model (requested kind %s is ignored)", model.Kind(), *modelKind)
		}
		return model
	}

	labels, data := loadTraining()
	model, err := csmodel.Fit(*modelKind, labels, data, *kdeBandwidth, *gridPoints)
	if err != nil {
		log.Fatalf("failed to fit model: %v", err)
	}
	monitoring.Infof("fitted %s model with %d states", model.Kind(), len(model.Labels()))
	return model
}

func loadTraining() ([]csmodel.StateLabel, csmodel.TrainingData) {
	if *trainingData == "" {
		labels, data, err := csmodel.DefaultTrainingData()
		if err != nil {
			log.Fatalf("failed to load bundled training data: %v", err)
		}
		return labels, data
	}
	f, err := os.Open(*trainingData)
	if err != nil {
		log.Fatalf("failed to open training data: %v", err)
	}
	defer f.Close()
	labels, data, err := csmodel.ParseTrainingJSON(f, *trainingDegrees)
	if err != nil {
		log.Fatalf("failed to parse training data: %v", err)
	}
	return labels, data
}
