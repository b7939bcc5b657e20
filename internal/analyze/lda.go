// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

// Topic is one fitted topic with its highest-probability terms.
type Topic struct {
	ID     int          `json:"id" yaml:"id"`
	Tokens int          `json:"tokens" yaml:"tokens"`
	Terms  []TermWeight `json:"terms" yaml:"terms"`
}

// DocTopics records a document's topic mixture.
type DocTopics struct {
	DocID    string    `json:"doc_id" yaml:"doc_id"`
	Group    string    `json:"group" yaml:"group"`
	TopTopic int       `json:"top_topic" yaml:"top_topic"`
	Weights  []float64 `json:"weights" yaml:"weights"`
}

// TopicReport is the output of a topic modeling run.
type TopicReport struct {
	K          int         `json:"k" yaml:"k"`
	Iterations int         `json:"iterations" yaml:"iterations"`
	Alpha      float64     `json:"alpha" yaml:"alpha"`
	Beta       float64     `json:"beta" yaml:"beta"`
	Seed       int64       `json:"seed" yaml:"seed"`
	Vocabulary int         `json:"vocabulary" yaml:"vocabulary"`
	Topics     []Topic     `json:"topics" yaml:"topics"`
	Documents  []DocTopics `json:"documents" yaml:"documents"`
}

// ldaModel is a collapsed Gibbs sampler for latent Dirichlet allocation.
type ldaModel struct {
	k     int
	alpha float64
	beta  float64

	vocab      []string
	vocabIndex map[string]int

	docs   [][]int // term IDs per document, in order
	assign [][]int // topic assignment per token

	docTopic   [][]int // nDocs x k
	topicTerm  [][]int // k x V
	topicTotal []int   // k

	rng *rand.Rand
}

// newLDAModel builds the vocabulary and randomly initializes topic
// assignments. The vocabulary is sorted so runs with the same seed produce
// identical models regardless of map iteration order.
func newLDAModel(files []types.TokenFile, k int, alpha, beta float64, seed int64) *ldaModel {
	vocabSet := make(map[string]bool)
	for _, tf := range files {
		for _, tok := range tf.Tokens {
			vocabSet[tok] = true
		}
	}
	vocab := make([]string, 0, len(vocabSet))
	for term := range vocabSet {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	vocabIndex := make(map[string]int, len(vocab))
	for i, term := range vocab {
		vocabIndex[term] = i
	}

	m := &ldaModel{
		k:          k,
		alpha:      alpha,
		beta:       beta,
		vocab:      vocab,
		vocabIndex: vocabIndex,
		rng:        rand.New(rand.NewSource(seed)),
	}

	m.docs = make([][]int, len(files))
	m.assign = make([][]int, len(files))
	m.docTopic = make([][]int, len(files))
	m.topicTerm = make([][]int, k)
	for t := range m.topicTerm {
		m.topicTerm[t] = make([]int, len(vocab))
	}
	m.topicTotal = make([]int, k)

	for d, tf := range files {
		m.docs[d] = make([]int, len(tf.Tokens))
		m.assign[d] = make([]int, len(tf.Tokens))
		m.docTopic[d] = make([]int, k)
		for i, tok := range tf.Tokens {
			w := vocabIndex[tok]
			t := m.rng.Intn(k)
			m.docs[d][i] = w
			m.assign[d][i] = t
			m.docTopic[d][t]++
			m.topicTerm[t][w]++
			m.topicTotal[t]++
		}
	}

	return m
}

// run performs the given number of full Gibbs sweeps.
func (m *ldaModel) run(iterations int) {
	v := float64(len(m.vocab))
	p := make([]float64, m.k)

	for iter := 0; iter < iterations; iter++ {
		for d := range m.docs {
			for i, w := range m.docs[d] {
				t := m.assign[d][i]
				m.docTopic[d][t]--
				m.topicTerm[t][w]--
				m.topicTotal[t]--

				var sum float64
				for t2 := 0; t2 < m.k; t2++ {
					p[t2] = (float64(m.docTopic[d][t2]) + m.alpha) *
						(float64(m.topicTerm[t2][w]) + m.beta) /
						(float64(m.topicTotal[t2]) + m.beta*v)
					sum += p[t2]
				}

				u := m.rng.Float64() * sum
				t = m.k - 1
				for t2 := 0; t2 < m.k; t2++ {
					u -= p[t2]
					if u <= 0 {
						t = t2
						break
					}
				}

				m.assign[d][i] = t
				m.docTopic[d][t]++
				m.topicTerm[t][w]++
				m.topicTotal[t]++
			}
		}
	}
}

// topicTerms returns the n highest-probability terms of topic t, using the
// smoothed term distribution phi.
func (m *ldaModel) topicTerms(t, n int) []TermWeight {
	v := float64(len(m.vocab))
	denom := float64(m.topicTotal[t]) + m.beta*v

	terms := make([]TermWeight, 0, len(m.vocab))
	for w, count := range m.topicTerm[t] {
		if count == 0 {
			continue
		}
		terms = append(terms, TermWeight{
			Term:   m.vocab[w],
			Weight: (float64(count) + m.beta) / denom,
		})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// docDistribution returns document d's smoothed topic mixture theta.
func (m *ldaModel) docDistribution(d int) []float64 {
	total := float64(len(m.docs[d])) + m.alpha*float64(m.k)
	weights := make([]float64, m.k)
	for t := 0; t < m.k; t++ {
		weights[t] = (float64(m.docTopic[d][t]) + m.alpha) / total
	}
	return weights
}

// Topics fits an LDA topic model to the corpus by collapsed Gibbs sampling.
// Zero-valued hyperparameters take the defaults: K=6, 500 iterations,
// alpha=50/K, beta=0.01, 15 terms per topic. A zero seed selects a fixed
// default so repeated runs stay reproducible.
func (a *Analyzer) Topics(tc types.TopicConfig) (TopicReport, error) {
	if tc.K <= 0 {
		tc.K = 6
	}
	if tc.Iterations <= 0 {
		tc.Iterations = 500
	}
	if tc.Alpha <= 0 {
		tc.Alpha = 50.0 / float64(tc.K)
	}
	if tc.Beta <= 0 {
		tc.Beta = 0.01
	}
	if tc.TopWords <= 0 {
		tc.TopWords = 15
	}
	if tc.Seed == 0 {
		tc.Seed = 42
	}

	files, err := a.loadTokenFiles()
	if err != nil {
		return TopicReport{}, err
	}
	if len(files) < 2 {
		return TopicReport{}, fmt.Errorf("topic modeling needs at least 2 documents, have %d", len(files))
	}

	model := newLDAModel(files, tc.K, tc.Alpha, tc.Beta, tc.Seed)
	model.run(tc.Iterations)

	report := TopicReport{
		K:          tc.K,
		Iterations: tc.Iterations,
		Alpha:      tc.Alpha,
		Beta:       tc.Beta,
		Seed:       tc.Seed,
		Vocabulary: len(model.vocab),
	}

	for t := 0; t < tc.K; t++ {
		report.Topics = append(report.Topics, Topic{
			ID:     t,
			Tokens: model.topicTotal[t],
			Terms:  model.topicTerms(t, tc.TopWords),
		})
	}

	for d, tf := range files {
		weights := model.docDistribution(d)
		top := 0
		for t, w := range weights {
			if w > weights[top] {
				top = t
			}
		}
		report.Documents = append(report.Documents, DocTopics{
			DocID:    tf.DocID,
			Group:    GroupInstitution.key(tf),
			TopTopic: top,
			Weights:  weights,
		})
	}

	if _, err := a.writeResult("topics", report, false); err != nil {
		return TopicReport{}, err
	}
	return report, nil
}
