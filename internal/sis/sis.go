// Package sis talks to the school information system that is the source of
// truth for enrollments. The sync worker pulls from here and materializes
// course-context documents for the eligibility engine.
package sis

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const defaultBaseURL = "https://sis.example-school.org/api/v1"

func baseURL() string {
	if url := os.Getenv("SIS_API_BASE_URL"); url != "" {
		return url
	}
	return defaultBaseURL
}

type Student struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate"`
}

type Enrollment struct {
	StudentID       string                     `json:"student_id"`
	CourseID        string                     `json:"course_id"`
	StudentType     string                     `json:"student_type"`
	DiplomaMonth    string                     `json:"diploma_month"`
	SchoolYear      string                     `json:"school_year"`
	Status          string                     `json:"status"`
	ScheduleEndDate string                     `json:"schedule_end_date"`
	Categories      map[string]map[string]bool `json:"categories"`
}

type StudentsResponse struct {
	Students []Student `json:"students"`
}

type EnrollmentsResponse struct {
	Enrollments []Enrollment `json:"enrollments"`
}

func GetStudents(apiKey string) ([]Student, error) {
	req, err := http.NewRequest("GET", baseURL()+"/students", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SIS API returned status: %d", resp.StatusCode)
	}

	var result StudentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error decoding response: %v", err)
	}

	return result.Students, nil
}

func GetEnrollments(apiKey, studentID string) ([]Enrollment, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/students/%s/enrollments", baseURL(), studentID), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SIS API returned status: %d", resp.StatusCode)
	}

	var result EnrollmentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error decoding response: %v", err)
	}

	return result.Enrollments, nil
}
