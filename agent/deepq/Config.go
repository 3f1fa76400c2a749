package deepq

import (
	"fmt"

	"github.com/samuelfneumann/drlplace/agent"
	"github.com/samuelfneumann/drlplace/expreplay"
	"github.com/samuelfneumann/drlplace/initwfn"
	"github.com/samuelfneumann/drlplace/network"
	"github.com/samuelfneumann/drlplace/solver"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	HiddenSize   int     `mapstructure:"hidden_size"`
	LearningRate float64 `mapstructure:"learning_rate"`
	GradientClip float64 `mapstructure:"gradient_clip"` // <= 0 if no clipping

	// HiddenActivation names the hidden layer activation, relu if empty
	HiddenActivation string `mapstructure:"hidden_activation"`

	Gamma float64 `mapstructure:"discount_factor"`

	// Behaviour policy ε schedule
	Epsilon      float64 `mapstructure:"exploration_rate"`
	EpsilonDecay float64 `mapstructure:"exploration_decay"`
	EpsilonMin   float64 `mapstructure:"min_exploration"`

	BatchSize            int              `mapstructure:"batch_size"`
	TargetUpdateInterval int              `mapstructure:"target_update_interval"`
	ExpReplay            expreplay.Config `mapstructure:"replay"`

	// Initialization algorithm for weights, GlorotU(1) if nil
	InitWFn *initwfn.InitWFn `mapstructure:"init_wfn"`

	// Solver for learning weights, vanilla gradient descent with
	// LearningRate and GradientClip if nil
	Solver *solver.Solver `mapstructure:"solver"`
}

// DefaultConfig returns the default agent hyperparameters
func DefaultConfig() Config {
	return Config{
		HiddenSize:           network.DefaultHiddenSize,
		HiddenActivation:     "relu",
		LearningRate:         0.001,
		Gamma:                0.95,
		Epsilon:              1.0,
		EpsilonDecay:         0.995,
		EpsilonMin:           0.01,
		BatchSize:            32,
		TargetUpdateInterval: 1000,
		ExpReplay:            expreplay.Config{Capacity: 10000},
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if c.HiddenSize < 1 {
		return fmt.Errorf("new: hidden layer must have positive size "+
			"\n\twant(>0) \n\thave(%v)", c.HiddenSize)
	}

	if _, err := c.hiddenActivation(); err != nil {
		return fmt.Errorf("new: %v", err)
	}

	if c.Solver == nil && c.LearningRate <= 0 {
		return fmt.Errorf("new: learning rate must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.LearningRate)
	}

	if c.Gamma < 0 || c.Gamma >= 1 {
		return fmt.Errorf("new: discount factor must be in [0, 1) "+
			"\n\twant(0 <= γ < 1) \n\thave(%v)", c.Gamma)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("new: batch size must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.BatchSize)
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("new: target networks must be updated at "+
			"positive intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateInterval)
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("new: epsilon must be in [0, 1] "+
			"\n\twant(0 <= ε <= 1) \n\thave(%v)", c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("new: epsilon decay must be in (0, 1] "+
			"\n\twant(0 < decay <= 1) \n\thave(%v)", c.EpsilonDecay)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("new: epsilon floor must be in [0, ε] "+
			"\n\twant(0 <= min <= %v) \n\thave(%v)", c.Epsilon, c.EpsilonMin)
	}

	return c.ExpReplay.Validate()
}

// hiddenActivation returns the configured hidden layer activation
func (c Config) hiddenActivation() (*network.Activation, error) {
	if c.HiddenActivation == "" {
		return network.ReLU(), nil
	}
	return network.ParseActivation(c.HiddenActivation)
}

// initWFn returns the configured weight initializer
func (c Config) initWFn() (*initwfn.InitWFn, error) {
	if c.InitWFn != nil {
		return c.InitWFn, nil
	}
	return initwfn.NewGlorotU(1.0)
}

// solver returns the configured solver
func (c Config) solver() (*solver.Solver, error) {
	if c.Solver != nil {
		return c.Solver, nil
	}
	return solver.NewVanilla(c.LearningRate, c.GradientClip)
}

// CreateAgent creates a new DeepQ agent based on the configuration
func (c Config) CreateAgent(features, actions int, src rand.Source,
	log logrus.FieldLogger) (agent.Agent, error) {
	return New(features, actions, c, src, log)
}
