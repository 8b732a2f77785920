package core

import "time"

// Summary is the pair shown under the table plus the inputs behind it.
type Summary struct {
	Budget       Money
	TotalExpense Money
	Remaining    Money
	Count        int
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   Category
	Amount Money
}

// DayAmount is the spending total of one calendar day.
type DayAmount struct {
	Date   time.Time
	Amount Money
}

// DailySpending holds date-ordered daily totals and their mean.
type DailySpending struct {
	Days []DayAmount
	Mean Money
}
