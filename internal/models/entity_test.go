package models_test

import (
	"github.com/salesops/target-planner/internal/models"
)

func (suite *TestSuiteStandard) TestEntityTrimWhitespace() {
	entity := suite.createTestEntity(models.EntityEditable{
		Name:       "\t Kim  ",
		GroupLabel: "  Sales 1 ",
		Note:       " Some note\t",
	})

	suite.Assert().Equal("Kim", entity.Name)
	suite.Assert().Equal("Sales 1", entity.GroupLabel)
	suite.Assert().Equal("Some note", entity.Note)
}

func (suite *TestSuiteStandard) TestEntityNameEmpty() {
	err := models.DB.Create(&models.Entity{EntityEditable: models.EntityEditable{Name: "   "}}).Error
	suite.Assert().ErrorIs(err, models.ErrEntityNameEmpty)
}

func (suite *TestSuiteStandard) TestEntityOrder() {
	c := suite.createTestEntity(models.EntityEditable{Name: "Choi", GroupLabel: "B", Position: 1})
	a := suite.createTestEntity(models.EntityEditable{Name: "Lee", GroupLabel: "A", Position: 2})
	b := suite.createTestEntity(models.EntityEditable{Name: "Park", GroupLabel: "A", Position: 1})
	d := suite.createTestEntity(models.EntityEditable{Name: "Ahn", GroupLabel: "B", Position: 1})

	entities, err := suite.store.PlanningEntities(suite.T().Context())
	suite.Require().NoError(err)

	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}

	suite.Assert().Equal([]string{b.ID.String(), a.ID.String(), d.ID.String(), c.ID.String()}, ids)
	suite.Assert().Equal("A", entities[0].GroupLabel)
	suite.Assert().Equal("Park", entities[0].Name)
}
