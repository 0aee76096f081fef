package bank

import (
	"context"

	"github.com/osamahm/biosphere/internal/domain"
)

// StaticLoader serves a fixed catalogue from memory, for DB-less runs and
// tests.
type StaticLoader struct {
	questions []domain.Question
}

func NewStaticLoader(questions []domain.Question) *StaticLoader {
	return &StaticLoader{questions: questions}
}

func (l *StaticLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return l.questions, nil
}

// Seed returns the reference catalogue: 10 questions per sphere.
func Seed() []domain.Question {
	return []domain.Question{
		// Life Support System (life sciences)
		{
			ID:           "ls-001",
			Sphere:       domain.SphereLifeSciences,
			Context:      "To stabilize the Life Support System, you must answer this biology question:",
			Prompt:       "Which organelle is responsible for energy production in plant cells?",
			Options:      []string{"Nucleus", "Mitochondria", "Chloroplast", "Ribosome"},
			CorrectIndex: 2,
			Explanation:  "Chloroplasts are the organelles where photosynthesis occurs, converting sunlight into chemical energy (glucose). Mitochondria produce energy in all cells through cellular respiration.",
		},
		{
			ID:           "ls-002",
			Sphere:       domain.SphereLifeSciences,
			Context:      "The Life Support System is detecting low oxygen levels. Answer correctly to restore balance:",
			Prompt:       "What is the primary function of red blood cells?",
			Options:      []string{"Fight infections", "Transport oxygen", "Produce hormones", "Regulate temperature"},
			CorrectIndex: 1,
			Explanation:  "Red blood cells contain hemoglobin, a protein that binds to oxygen in the lungs and transports it throughout the body to cells that need it for respiration.",
		},
		{
			ID:           "ls-003",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Biological systems are failing. Help restore them:",
			Prompt:       "Which of the following is NOT a characteristic of living organisms?",
			Options:      []string{"Reproduction", "Metabolism", "Permanent size", "Response to environment"},
			CorrectIndex: 2,
			Explanation:  "Living organisms are characterized by growth and change, not permanent size. All living things reproduce, have metabolism, and respond to their environment.",
		},
		{
			ID:           "ls-004",
			Sphere:       domain.SphereLifeSciences,
			Context:      "The ecosystem module is malfunctioning. Restore it with your knowledge:",
			Prompt:       "In a food chain, which organisms are the primary producers?",
			Options:      []string{"Herbivores", "Plants", "Carnivores", "Decomposers"},
			CorrectIndex: 1,
			Explanation:  "Plants are primary producers because they convert sunlight into chemical energy through photosynthesis. All other organisms depend on this energy source.",
		},
		{
			ID:           "ls-005",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Life Support diagnostics show cellular dysfunction. Answer to repair:",
			Prompt:       "What is the basic unit of life?",
			Options:      []string{"Atom", "Molecule", "Cell", "Tissue"},
			CorrectIndex: 2,
			Explanation:  "The cell is the smallest unit of life that can function independently and perform all life processes. All living organisms are made of one or more cells.",
		},
		{
			ID:           "ls-006",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Genetic systems are unstable. Stabilize them with correct knowledge:",
			Prompt:       "Which molecule carries genetic information in most organisms?",
			Options:      []string{"Protein", "Carbohydrate", "DNA", "Lipid"},
			CorrectIndex: 2,
			Explanation:  "DNA (deoxyribonucleic acid) is the molecule that stores genetic instructions for all living organisms. It contains genes that determine traits and characteristics.",
		},
		{
			ID:           "ls-007",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Photosynthesis systems are offline. Restore them:",
			Prompt:       "What do plants need to perform photosynthesis?",
			Options:      []string{"Oxygen and water", "Carbon dioxide, water, and sunlight", "Nitrogen and minerals only", "Glucose and oxygen"},
			CorrectIndex: 1,
			Explanation:  "Plants need carbon dioxide (from air), water (from soil), and sunlight to perform photosynthesis. They use these to create glucose (sugar) and release oxygen.",
		},
		{
			ID:           "ls-008",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Respiratory systems are failing. Help restore oxygen circulation:",
			Prompt:       "What is the main function of the respiratory system?",
			Options:      []string{"Digest food", "Exchange oxygen and carbon dioxide", "Pump blood", "Filter waste"},
			CorrectIndex: 1,
			Explanation:  "The respiratory system exchanges oxygen from the air into the bloodstream and removes carbon dioxide waste from the body through exhalation.",
		},
		{
			ID:           "ls-009",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Immune defense is compromised. Strengthen it with knowledge:",
			Prompt:       "Which type of white blood cell directly attacks pathogens?",
			Options:      []string{"B cells", "T cells", "Platelets", "Plasma cells"},
			CorrectIndex: 1,
			Explanation:  "T cells (T lymphocytes) directly attack and destroy pathogens and infected cells. B cells produce antibodies that mark pathogens for destruction.",
		},
		{
			ID:           "ls-010",
			Sphere:       domain.SphereLifeSciences,
			Context:      "Biodiversity sensors are failing. Restore them:",
			Prompt:       "What is the process by which organisms adapt to their environment over generations?",
			Options:      []string{"Mutation", "Evolution", "Adaptation", "Natural selection"},
			CorrectIndex: 1,
			Explanation:  "Evolution is the process of change in organisms over time through natural selection. Organisms with beneficial traits survive and reproduce more successfully.",
		},

		// Power Core (chemistry)
		{
			ID:           "chem-001",
			Sphere:       domain.SphereChemistry,
			Context:      "The Power Core is destabilizing. Answer this chemistry question to restore it:",
			Prompt:       "What is the smallest unit of an element that retains its properties?",
			Options:      []string{"Molecule", "Compound", "Atom", "Ion"},
			CorrectIndex: 2,
			Explanation:  "An atom is the smallest unit of an element. It consists of protons, neutrons, and electrons. Atoms of the same element have identical chemical properties.",
		},
		{
			ID:           "chem-002",
			Sphere:       domain.SphereChemistry,
			Context:      "Power fluctuations detected. Stabilize the core:",
			Prompt:       "Which state of matter has a definite shape and volume?",
			Options:      []string{"Gas", "Liquid", "Solid", "Plasma"},
			CorrectIndex: 2,
			Explanation:  "Solids have a definite shape and volume because their particles are tightly packed and vibrate in fixed positions. Liquids have definite volume but take the shape of their container.",
		},
		{
			ID:           "chem-003",
			Sphere:       domain.SphereChemistry,
			Context:      "Molecular bonds are breaking down. Repair them:",
			Prompt:       "What type of bond forms between atoms when electrons are shared?",
			Options:      []string{"Ionic bond", "Covalent bond", "Metallic bond", "Hydrogen bond"},
			CorrectIndex: 1,
			Explanation:  "A covalent bond forms when two atoms share electrons. This is the strongest type of chemical bond and is found in molecules like water (H₂O) and oxygen gas (O₂).",
		},
		{
			ID:           "chem-004",
			Sphere:       domain.SphereChemistry,
			Context:      "Reaction rates are unstable. Regulate them:",
			Prompt:       "What is a substance that speeds up a chemical reaction without being consumed?",
			Options:      []string{"Reactant", "Product", "Catalyst", "Enzyme"},
			CorrectIndex: 2,
			Explanation:  "A catalyst is a substance that increases the rate of a chemical reaction without being permanently changed. Enzymes are biological catalysts that speed up reactions in living organisms.",
		},
		{
			ID:           "chem-005",
			Sphere:       domain.SphereChemistry,
			Context:      "Oxidation levels are critical. Balance them:",
			Prompt:       "What happens when a substance gains electrons?",
			Options:      []string{"Oxidation", "Reduction", "Combustion", "Decomposition"},
			CorrectIndex: 1,
			Explanation:  "Reduction occurs when a substance gains electrons. Oxidation is the loss of electrons. These processes always occur together in redox reactions.",
		},
		{
			ID:           "chem-006",
			Sphere:       domain.SphereChemistry,
			Context:      "pH levels are unstable. Restore chemical balance:",
			Prompt:       "On the pH scale, what range indicates a basic (alkaline) solution?",
			Options:      []string{"0-6", "7", "8-14", "1-7"},
			CorrectIndex: 2,
			Explanation:  "The pH scale ranges from 0-14. Values from 0-6 are acidic, 7 is neutral, and 8-14 are basic (alkaline). Pure water has a pH of 7.",
		},
		{
			ID:           "chem-007",
			Sphere:       domain.SphereChemistry,
			Context:      "Periodic elements are destabilizing. Stabilize them:",
			Prompt:       "Which element is the most abundant in the Earth's atmosphere?",
			Options:      []string{"Oxygen", "Nitrogen", "Carbon", "Hydrogen"},
			CorrectIndex: 1,
			Explanation:  "Nitrogen (N₂) makes up about 78% of Earth's atmosphere. Oxygen makes up about 21%. Despite oxygen being essential for respiration, nitrogen is more abundant.",
		},
		{
			ID:           "chem-008",
			Sphere:       domain.SphereChemistry,
			Context:      "Molecular structure is failing. Reconstruct it:",
			Prompt:       "What is the chemical formula for table salt?",
			Options:      []string{"NaCl", "KCl", "CaCl₂", "MgCl₂"},
			CorrectIndex: 0,
			Explanation:  "Sodium chloride (NaCl) is table salt. It forms an ionic bond between sodium (Na⁺) and chloride (Cl⁻) ions. It is essential for human health.",
		},
		{
			ID:           "chem-009",
			Sphere:       domain.SphereChemistry,
			Context:      "Combustion systems are unstable. Control them:",
			Prompt:       "What are the products of complete combustion of a hydrocarbon?",
			Options:      []string{"Carbon and hydrogen", "Carbon dioxide and water", "Carbon monoxide and hydrogen", "Ash and smoke"},
			CorrectIndex: 1,
			Explanation:  "Complete combustion of hydrocarbons (like gasoline or methane) produces carbon dioxide (CO₂) and water (H₂O). Incomplete combustion produces carbon monoxide (CO), which is toxic.",
		},
		{
			ID:           "chem-010",
			Sphere:       domain.SphereChemistry,
			Context:      "Isotope readings are fluctuating. Stabilize them:",
			Prompt:       "What is an isotope?",
			Options:      []string{"An atom with a different number of protons", "An atom with a different number of electrons", "An atom with a different number of neutrons", "A different element entirely"},
			CorrectIndex: 2,
			Explanation:  "Isotopes are atoms of the same element with different numbers of neutrons, resulting in different atomic masses. For example, carbon-12 and carbon-14 are isotopes of carbon.",
		},

		// Communication Array (physics)
		{
			ID:           "phys-001",
			Sphere:       domain.SpherePhysics,
			Context:      "Communication signals are degrading. Restore them with physics knowledge:",
			Prompt:       "What is the SI unit of force?",
			Options:      []string{"Joule", "Newton", "Watt", "Pascal"},
			CorrectIndex: 1,
			Explanation:  "The Newton (N) is the SI unit of force. One Newton is the force required to accelerate a 1 kg mass at 1 m/s². It is named after Sir Isaac Newton.",
		},
		{
			ID:           "phys-002",
			Sphere:       domain.SpherePhysics,
			Context:      "Signal transmission is failing. Boost the signal:",
			Prompt:       "Which type of wave can travel through a vacuum?",
			Options:      []string{"Sound wave", "Water wave", "Electromagnetic wave", "Seismic wave"},
			CorrectIndex: 2,
			Explanation:  "Electromagnetic waves (like light, radio waves, and X-rays) can travel through a vacuum because they do not require a medium. Sound waves require a medium like air or water.",
		},
		{
			ID:           "phys-003",
			Sphere:       domain.SpherePhysics,
			Context:      "Motion sensors are malfunctioning. Recalibrate them:",
			Prompt:       "What is the difference between speed and velocity?",
			Options:      []string{"Speed is faster than velocity", "Velocity includes direction, speed does not", "They are the same thing", "Speed is measured in m/s, velocity in km/h"},
			CorrectIndex: 1,
			Explanation:  "Speed is the rate of distance traveled (scalar), while velocity is speed with direction (vector). For example, \"10 m/s north\" is velocity, while \"10 m/s\" is speed.",
		},
		{
			ID:           "phys-004",
			Sphere:       domain.SpherePhysics,
			Context:      "Energy systems are depleting. Restore them:",
			Prompt:       "What is the SI unit of energy?",
			Options:      []string{"Newton", "Watt", "Joule", "Hertz"},
			CorrectIndex: 2,
			Explanation:  "The Joule (J) is the SI unit of energy and work. One Joule is the energy transferred when a force of one Newton acts over a distance of one meter.",
		},
		{
			ID:           "phys-005",
			Sphere:       domain.SpherePhysics,
			Context:      "Gravitational systems are unstable. Stabilize them:",
			Prompt:       "What is the force that pulls objects toward the center of the Earth?",
			Options:      []string{"Friction", "Gravity", "Magnetism", "Tension"},
			CorrectIndex: 1,
			Explanation:  "Gravity is the force of attraction between all masses. It pulls objects toward the Earth's center and is responsible for keeping us on the ground and the Moon orbiting Earth.",
		},
		{
			ID:           "phys-006",
			Sphere:       domain.SpherePhysics,
			Context:      "Light systems are failing. Restore illumination:",
			Prompt:       "What is the speed of light in a vacuum?",
			Options:      []string{"300,000 km/s", "150,000 km/s", "500,000 km/s", "100,000 km/s"},
			CorrectIndex: 0,
			Explanation:  "Light travels at approximately 300,000 kilometers per second (3 × 10⁸ m/s) in a vacuum. This is the fastest speed in the universe and is a fundamental constant in physics.",
		},
		{
			ID:           "phys-007",
			Sphere:       domain.SpherePhysics,
			Context:      "Thermal systems are overheating. Cool them down with knowledge:",
			Prompt:       "What is the relationship between temperature and kinetic energy?",
			Options:      []string{"They are unrelated", "Higher temperature means higher average kinetic energy", "Higher temperature means lower kinetic energy", "Temperature measures potential energy"},
			CorrectIndex: 1,
			Explanation:  "Temperature is a measure of the average kinetic energy of particles in a substance. Higher temperature means particles are moving faster and have more kinetic energy.",
		},
		{
			ID:           "phys-008",
			Sphere:       domain.SpherePhysics,
			Context:      "Sound systems are malfunctioning. Restore audio transmission:",
			Prompt:       "What is the frequency of a sound wave related to?",
			Options:      []string{"Its amplitude", "Its pitch", "Its wavelength", "Its speed"},
			CorrectIndex: 1,
			Explanation:  "Frequency determines the pitch of a sound. Higher frequency means higher pitch (like a whistle), while lower frequency means lower pitch (like a drum). Frequency is measured in Hertz (Hz).",
		},
		{
			ID:           "phys-009",
			Sphere:       domain.SpherePhysics,
			Context:      "Optical systems are failing. Restore vision:",
			Prompt:       "What is the angle of reflection equal to?",
			Options:      []string{"The angle of incidence", "Twice the angle of incidence", "Half the angle of incidence", "The angle of refraction"},
			CorrectIndex: 0,
			Explanation:  "The law of reflection states that the angle of reflection equals the angle of incidence. Both angles are measured from the normal (perpendicular) to the surface.",
		},
		{
			ID:           "phys-010",
			Sphere:       domain.SpherePhysics,
			Context:      "Momentum sensors are offline. Restore them:",
			Prompt:       "What is momentum?",
			Options:      []string{"Force times time", "Mass times velocity", "Energy times distance", "Force divided by acceleration"},
			CorrectIndex: 1,
			Explanation:  "Momentum is the product of an object's mass and velocity (p = mv). It is a measure of how difficult it is to stop a moving object. Momentum is conserved in collisions.",
		},
	}
}
