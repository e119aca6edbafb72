package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Demo endpoints return canned payloads for development and demonstration.
// The shapes mirror what the real analyzers produce.

func (h *Handler) DemoSampleText(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Sample educational text retrieved successfully",
		"data": gin.H{
			"title":      "Introduction to Machine Learning",
			"content":    "Machine learning is a subset of artificial intelligence that focuses on building systems that learn from data...",
			"language":   "en",
			"difficulty": "intermediate",
		},
	})
}

func (h *Handler) DemoSampleAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Sample analysis results retrieved successfully",
		"data": gin.H{
			"analysis_id": "demo_12345",
			"status":      "completed",
			"results": gin.H{
				"key_concepts":          []string{"machine learning", "neural networks", "training data"},
				"difficulty_level":      "intermediate",
				"reading_time_minutes":  8,
				"vocabulary_complexity": 0.75,
			},
			"timestamp": "2023-09-13T10:00:00Z",
		},
	})
}

func (h *Handler) DemoSampleQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Sample questions generated successfully",
		"data": gin.H{
			"questions": []gin.H{
				{
					"question":   "What is the difference between supervised and unsupervised learning?",
					"type":       "short_answer",
					"difficulty": "medium",
				},
				{
					"question":       "Which of the following is not a machine learning algorithm?",
					"type":           "multiple_choice",
					"options":        []string{"Random Forest", "Linear Regression", "Binary Search", "Neural Network"},
					"correct_answer": 2,
					"explanation":    "Binary Search is a search algorithm, not a machine learning algorithm.",
					"difficulty":     "easy",
				},
			},
		},
	})
}

func (h *Handler) DemoSampleFeedback(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Sample feedback generated successfully",
		"data": gin.H{
			"original_answer": "Machine learning is when computers learn from data.",
			"feedback": gin.H{
				"score":     0.6,
				"strengths": []string{"Correctly identifies the core concept of learning from data"},
				"areas_for_improvement": []string{
					"Could be more specific about how the learning process works",
					"Mention the role of algorithms in machine learning",
				},
				"suggested_resources": []gin.H{
					{"title": "Introduction to Machine Learning", "url": "#"},
					{"title": "Types of Machine Learning Algorithms", "url": "#"},
				},
			},
		},
	})
}
