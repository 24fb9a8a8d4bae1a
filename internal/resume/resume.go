// Package resume holds the static professional profile text the chat
// assistant uses as context. The text is compiled in rather than stored —
// it changes rarely and a redeploy is the natural update path.
package resume

// Name is the person the assistant speaks as.
const Name = "Sam Sepassi"

// Summary is the short professional summary shown to the model.
func Summary() string {
	return summary
}

// LinkedInProfile is the long-form profile text (roles, certifications,
// education) shown to the model.
func LinkedInProfile() string {
	return linkedIn
}

const summary = `Senior Cybersecurity Technical Specialist with progressive experience designing secure architectures, leading vulnerability management initiatives, and executing threat mitigation strategies across financial, federal, and technology sectors. Proven ability to conduct Design Engagement Reviews, align security strategies with business objectives, and lead enterprise-wide compliance efforts aligned with industry-standard security frameworks and data privacy regulations. Skilled in secure system design across on-premises and cloud environments such as AWS and Azure, risk-based vulnerability prioritization, and continuous monitoring. Certified across multiple domains including CISSP, OSCP, CCSP, AWS Security Specialty, and CASP+. Adept at streamlining risk management processes, integrating threat intelligence, and applying the MITRE ATT&CK framework to enhance incident response and reduce attack surfaces. Passionate about AI and its intersection with cybersecurity, leveraging automation, intelligent threat detection, and emerging technologies to strengthen enterprise defenses. Committed to mentoring teams and applying innovative solutions to evolving cyber threats.`

const linkedIn = `Sam Sepassi
AI Interaction Engineer at Tanium
Sterling, Virginia, United States

Top Skills: PydanticAI, Go (Programming Language), Prompt Injection
Languages: Persian (Full Professional), English (Native or Bilingual)

Certifications:
- CompTIA Linux+ ce Certification
- Microsoft Certified: Azure Security Engineer Associate
- OffSec Certified Professional+ (OSCP+)
- Oracle Cloud Infrastructure 2025 Certified Security Professional

Publications:
- Cybersecurity Framework Profile for Hybrid Satellite Networks (HSN)

Experience:
- Tanium — AI Interaction Engineer (August 2025 - Present)
- Oracle — Senior Security Architecture Specialist, Oracle Health & AI (March 2025 - August 2025)
- Freddie Mac — Cyber Security Senior, Vulnerability Management (August 2023 - March 2025)
- MITRE — Senior Cybersecurity Engineer (March 2023 - August 2023)
- Leidos — Cybersecurity Engineer, Cybersecurity Architecture and Engineering (October 2022 - March 2023)
- Leidos — Cybersecurity Risk Management Analyst (August 2021 - October 2022)
- TIAG — IT Specialist Intern (December 2020 - August 2021)

Education:
- The George Washington University — Master of Engineering, Cybersecurity Analytics
- George Mason University — Bachelor's degree, Information Technology
- Northern Virginia Community College — Associate of Science, Information Technology`
