package models

// OrderStatus is the commercial track of an order.
type OrderStatus int

const (
	OrderStatusNewInquiry OrderStatus = 0
	OrderStatusConfirmed  OrderStatus = 1
	OrderStatusCompleted  OrderStatus = 2
)

func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusNewInquiry:
		return "New Inquiry"
	case OrderStatusConfirmed:
		return "Confirmed"
	case OrderStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

func (s OrderStatus) Valid() bool {
	return s >= OrderStatusNewInquiry && s <= OrderStatusCompleted
}

// BeoStatus is the approval track of an order's BEO set.
type BeoStatus int

const (
	BeoStatusPlanning         BeoStatus = 0
	BeoStatusSentToApprover   BeoStatus = 1
	BeoStatusApproverApproved BeoStatus = 2
	BeoStatusInProgress       BeoStatus = 3
	// BeoStatusFullyApproved is labelled but no workflow action writes it.
	BeoStatusFullyApproved BeoStatus = 4
)

func (s BeoStatus) Label() string {
	switch s {
	case BeoStatusPlanning:
		return "Planning"
	case BeoStatusSentToApprover:
		return "Sent to Approver"
	case BeoStatusApproverApproved:
		return "Approver Approved"
	case BeoStatusInProgress:
		return "Completed"
	case BeoStatusFullyApproved:
		return "Approved"
	default:
		return "Unknown"
	}
}

// ScheduleFunction describes what happens in a venue on a given day.
// Zero means no explicit function was recorded.
type ScheduleFunction int

const (
	FunctionUnset      ScheduleFunction = 0
	FunctionLoadingIn  ScheduleFunction = 1
	FunctionShow       ScheduleFunction = 2
	FunctionLoadingOut ScheduleFunction = 3
)

func (f ScheduleFunction) Label() string {
	switch f {
	case FunctionLoadingIn:
		return "Loading In"
	case FunctionShow:
		return "Show"
	case FunctionLoadingOut:
		return "Loading Out"
	default:
		return ""
	}
}

func (f ScheduleFunction) Valid() bool {
	return f >= FunctionUnset && f <= FunctionLoadingOut
}
