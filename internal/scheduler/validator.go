package scheduler

import (
	"fmt"
)

// Issue is one advisory finding from the feasibility validator. Issues do not
// halt generation; the caller decides whether to proceed.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	IssueTeacherNoSubjects   = "TEACHER_NO_SUBJECTS"
	IssueUnknownSubjectRef   = "UNKNOWN_SUBJECT_REF"
	IssueUnknownLevelRef     = "UNKNOWN_LEVEL_REF"
	IssueTargetExceedsWeek   = "TARGET_EXCEEDS_WEEK"
	IssueSubjectNoTeacher    = "SUBJECT_NO_TEACHER"
	IssueDemandExceedsSupply = "DEMAND_EXCEEDS_SUPPLY"
	IssuePeriodOverlap       = "PERIOD_OVERLAP"
)

// Validate runs the static feasibility checks over the entity set for the
// given number of teaching days. It is read-only and returns issues in a
// stable order.
func Validate(e Entities, days int) []Issue {
	issues := make([]Issue, 0)

	levels := make(map[string]bool, len(e.Classes))
	for _, class := range e.Classes {
		levels[class.Level] = true
	}
	subjects := make(map[string]bool, len(e.Subjects))
	for _, subject := range e.Subjects {
		subjects[subject.ID] = true
	}

	for _, teacher := range e.Teachers {
		if len(teacher.SubjectIDs) == 0 {
			issues = append(issues, Issue{
				Code:    IssueTeacherNoSubjects,
				Message: fmt.Sprintf("teacher %s has no subjects assigned", teacher.FullName),
			})
		}
		for _, subjectID := range teacher.SubjectIDs {
			if !subjects[subjectID] {
				issues = append(issues, Issue{
					Code:    IssueUnknownSubjectRef,
					Message: fmt.Sprintf("teacher %s references unknown subject %s", teacher.FullName, subjectID),
				})
			}
		}
		for _, level := range teacher.ClassLevels {
			if !levels[level] {
				issues = append(issues, Issue{
					Code:    IssueUnknownLevelRef,
					Message: fmt.Sprintf("teacher %s references level %s with no matching class", teacher.FullName, level),
				})
			}
		}
	}

	lessonPeriods := e.LessonPeriods()
	weeklySlots := len(lessonPeriods) * days

	for _, subject := range e.Subjects {
		if subject.TargetPerWeek > weeklySlots {
			issues = append(issues, Issue{
				Code: IssueTargetExceedsWeek,
				Message: fmt.Sprintf("subject %s targets %d lessons/week but only %d lesson slots exist",
					subject.Name, subject.TargetPerWeek, weeklySlots),
			})
		}
		hasTeacher := false
		for _, teacher := range e.Teachers {
			if teacher.TeachesSubject(subject.ID) {
				hasTeacher = true
				break
			}
		}
		if !hasTeacher {
			issues = append(issues, Issue{
				Code:    IssueSubjectNoTeacher,
				Message: fmt.Sprintf("subject %s has no eligible teacher", subject.Name),
			})
		}
	}

	totalDemand := 0
	for range e.Classes {
		for _, subject := range e.Subjects {
			totalDemand += subject.TargetPerWeek
		}
	}
	capacity := len(e.Classes) * weeklySlots
	if totalDemand > capacity {
		issues = append(issues, Issue{
			Code: IssueDemandExceedsSupply,
			Message: fmt.Sprintf("total subject demand of %d lessons exceeds the %d available lesson slots",
				totalDemand, capacity),
		})
	}

	for i := 0; i < len(lessonPeriods); i++ {
		for j := i + 1; j < len(lessonPeriods); j++ {
			if lessonPeriods[i].Overlaps(lessonPeriods[j]) {
				issues = append(issues, Issue{
					Code: IssuePeriodOverlap,
					Message: fmt.Sprintf("periods %s and %s overlap in time",
						lessonPeriods[i].Name, lessonPeriods[j].Name),
				})
			}
		}
	}

	return issues
}
